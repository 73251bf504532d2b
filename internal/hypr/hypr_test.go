package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const clientsJSON = `[
  {"address":"0x1","class":"kitty","mapped":true,"hidden":false,"at":[0,0],"size":[800,600]},
  {"address":" 0x2 ","class":" hark-overlay ","mapped":false,"hidden":false,"at":[5,5],"size":[1,1]},
  {"address":"0x3","class":"hark-overlay","mapped":true,"hidden":false,"at":[1700,900],"size":[96,96]}
]`

func TestQueryClientMatchesMappedClass(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "clients" ]]; then
  echo '`+clientsJSON+`'
  exit 0
fi
exit 1
`)

	client, err := QueryClient(context.Background(), " hark-overlay ")
	require.NoError(t, err)
	require.Equal(t, "0x3", client.Address)
	require.Equal(t, [2]int{1700, 900}, client.At)
	require.Equal(t, [2]int{96, 96}, client.Size)

	require.True(t, client.Contains(1700, 900))
	require.True(t, client.Contains(1795.5, 995))
	require.False(t, client.Contains(1796, 950))
	require.False(t, client.Contains(1699, 950))
}

func TestQueryClientMissingClass(t *testing.T) {
	installHyprctlStub(t, `echo '`+clientsJSON+`'`)

	_, err := QueryClient(context.Background(), "firefox")
	require.ErrorIs(t, err, ErrWindowNotFound)
	require.Contains(t, err.Error(), "firefox")

	_, err = QueryClient(context.Background(), " ")
	require.ErrorContains(t, err, "must not be empty")
}

func TestQueryClientRejectsMalformedJSON(t *testing.T) {
	installHyprctlStub(t, `echo '{not json'`)

	_, err := QueryClient(context.Background(), "hark-overlay")
	require.ErrorContains(t, err, "decode hyprctl clients json")
}

func TestMoveWindowExactDispatchesClassTarget(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	require.NoError(t, MoveWindowExact(context.Background(), "hark.overlay", 120, -4))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, `--quiet dispatch movewindowpixel exact 120 -4,class:^(hark\.overlay)$`, strings.TrimSpace(string(data)))
}

func TestNotifyAndDismissUseHyprctlDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	err := Notify(context.Background(), 3, 1200, "", "Speech recognition error")
	require.NoError(t, err)

	err = DismissNotify(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "--quiet dispatch notify 3 1200 rgb(89b4fa) Speech recognition error", lines[0])
	require.Equal(t, "--quiet dispatch dismissnotify", lines[1])
}

func TestHyprctlFailureCarriesDiagnostics(t *testing.T) {
	installHyprctlStub(t, `
echo 'boom from hyprctl' >&2
exit 1
`)
	err := MoveWindowExact(context.Background(), "hark-overlay", 1, 2)
	require.ErrorContains(t, err, "hyprctl --quiet dispatch movewindowpixel")
	require.ErrorContains(t, err, "boom from hyprctl")

	installHyprctlStub(t, `
echo 'HYPRLAND_INSTANCE_SIGNATURE not set'
exit 1
`)
	_, err = QueryClient(context.Background(), "hark-overlay")
	require.ErrorContains(t, err, "HYPRLAND_INSTANCE_SIGNATURE not set")

	installHyprctlStub(t, `exit 3`)
	require.ErrorContains(t, DismissNotify(context.Background()), "exit status 3")
}

func TestNotifyKeepsExplicitColor(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	require.NoError(t, Notify(context.Background(), 5, 2500, " rgb(a6e3a1) ", "broadcasting: hi"))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--quiet dispatch notify 5 2500 rgb(a6e3a1) broadcasting: hi", strings.TrimSpace(string(data)))
}

func TestSessionActive(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	require.False(t, SessionActive())
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc_123")
	require.True(t, SessionActive())
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
