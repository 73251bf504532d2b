package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/config"
)

func TestHyprNotifyDispatchSequence(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.Enable = true

	notify := NewHyprNotify(cfg, nil)
	notify.messages = catalogs[0].text
	notify.ShowListening(context.Background())
	notify.ShowProcessing(context.Background())
	notify.ShowMessage(context.Background(), "Volume set to 50")
	notify.ShowMessage(context.Background(), "  ")
	notify.ShowError(context.Background(), "")
	notify.EnterAlternate(context.Background())
	notify.ExitAlternate(context.Background())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Listening…",
		"--quiet dispatch notify 1 300000 rgb(cba6f7) Recognizing…",
		"--quiet dispatch notify 5 2500 rgb(a6e3a1) Volume set to 50",
		"--quiet dispatch notify 3 1600 rgb(f38ba8) Speech recognition error",
		"--quiet dispatch notify 2 300000 rgb(f9e2af) Alternate mode",
		"--quiet dispatch dismissnotify",
	}, lines)
}

func TestHyprNotifyShowErrorUsesProvidedTextAndDefaultTimeout(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.ErrorTimeoutMS = 0

	notify := NewHyprNotify(cfg, nil)
	notify.ShowError(context.Background(), "network timeout")

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--quiet dispatch notify 3 1200 rgb(f38ba8) network timeout\n", string(data))
}

func TestHyprNotifyDisabledSkipsDispatchButKeepsCues(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = true

	notify := NewHyprNotify(cfg, nil)
	played := &cueRecorder{}
	notify.play = played.play

	notify.ShowListening(context.Background())
	notify.ShowProcessing(context.Background())
	notify.ShowError(context.Background(), "ignored")
	notify.Hide(context.Background())
	notify.Wait()

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
	require.ElementsMatch(t, []cueKind{cueListen, cueStop, cueError}, played.snapshot())
}

func TestHyprNotifySoundDisabledPlaysNothing(t *testing.T) {
	installHyprctlStub(t, `exit 0`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	notify := NewHyprNotify(cfg, nil)
	played := &cueRecorder{}
	notify.play = played.play

	notify.ShowListening(context.Background())
	notify.EnterAlternate(context.Background())
	notify.Wait()
	require.Empty(t, played.snapshot())
}

func TestHyprNotifyDesktopBackendReplacesAndDismisses(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	installStub(t, "busctl", `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
if [[ "$*" == *" Notify "* ]]; then
  echo 'u 42'
fi
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.Backend = "desktop"

	notify := NewHyprNotify(cfg, nil)
	notify.ShowMessage(context.Background(), "Playing")
	notify.ShowError(context.Background(), "Stopped")
	notify.Hide(context.Background())
	notify.Hide(context.Background())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Notify susssasa{sv}i hark-indicator 0  Playing  0 1 urgency y 1 2500")
	require.Contains(t, lines[1], "Notify susssasa{sv}i hark-indicator 42  Stopped  0 1 urgency y 2 ")
	require.Contains(t, lines[2], "CloseNotification u 42")
}

func TestUrgencyFollowsIndicatorKind(t *testing.T) {
	require.Equal(t, urgencyCritical, urgencyFor(iconError))
	require.Equal(t, urgencyLow, urgencyFor(iconInfo))
	require.Equal(t, urgencyLow, urgencyFor(iconHint))
	require.Equal(t, urgencyNormal, urgencyFor(iconOK))
}

func TestDesktopNotifyRejectsMalformedReply(t *testing.T) {
	installStub(t, "busctl", `echo 'b true'`)
	_, err := desktopNotify(context.Background(), desktopNotification{appName: "hark", summary: "x"})
	require.ErrorContains(t, err, "invalid response")

	installStub(t, "busctl", `echo 'nope' >&2; exit 1`)
	_, err = desktopNotify(context.Background(), desktopNotification{appName: "hark", summary: "x"})
	require.ErrorContains(t, err, "nope")
	require.ErrorContains(t, desktopDismiss(context.Background(), 7), "desktop dismiss failed")
}

func TestNoopSatisfiesController(t *testing.T) {
	var c Controller = Noop{}
	c.ShowListening(context.Background())
	c.ShowMessage(context.Background(), "x")
	c.Hide(context.Background())
}

type cueRecorder struct {
	mu    sync.Mutex
	kinds []cueKind
}

func (r *cueRecorder) play(_ context.Context, kind cueKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	return nil
}

func (r *cueRecorder) snapshot() []cueKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cueKind(nil), r.kinds...)
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()
	installStub(t, "hyprctl", body)
}

func installStub(t *testing.T, name string, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
