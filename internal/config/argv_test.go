package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    []string
		wantErr string
	}{
		"empty":               {input: "  ", want: nil},
		"plain":               {input: "espeak-ng --stdout", want: []string{"espeak-ng", "--stdout"}},
		"double quoted":       {input: `piper --model "en us.onnx"`, want: []string{"piper", "--model", "en us.onnx"}},
		"single is literal":   {input: `say 'a\b'`, want: []string{"say", `a\b`}},
		"double escapes":      {input: `say "a \"b\" \n"`, want: []string{"say", `a "b" \n`}},
		"escaped space":       {input: `say hello\ world`, want: []string{"say", "hello world"}},
		"empty quoted arg":    {input: `say ""`, want: []string{"say", ""}},
		"hash is literal":     {input: `# espeak-ng`, want: []string{"#", "espeak-ng"}},
		"unterminated quote":  {input: `say "oops`, wantErr: "unterminated quote"},
		"unterminated escape": {input: `say hello\`, wantErr: "unterminated escape"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseCommand(tc.input)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Argv)
		})
	}
}

func TestParseCommandExpandsHomeInProgram(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cmd, err := ParseCommand(" ~/bin/tts ~/voice ")
	require.NoError(t, err)
	require.Equal(t, "~/bin/tts ~/voice", cmd.Raw)
	require.Equal(t, []string{filepath.Join(home, "bin", "tts"), "~/voice"}, cmd.Argv)
}

func TestMustCommandPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() { _ = mustCommand(`say "unterminated`) })
}
