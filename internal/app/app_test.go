package app

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/catalog"
	"github.com/rbright/hark/internal/command"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/history"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/overlay"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "hark")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerStopReturnsNoRunningDaemon(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "stop"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no running hark daemon")
}

func TestRunnerForwardsCommandsToRunningDaemon(t *testing.T) {
	paths := setupRunnerEnv(t)
	requests := make(chan ipc.Request, 8)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "hark.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		requests <- req
		switch req.Command {
		case ipc.CommandStatus:
			return ipc.Response{OK: true, State: "listening", Message: "speaking"}
		case ipc.CommandSay:
			return ipc.Response{OK: true, Message: "broadcasting: " + req.Text}
		case ipc.CommandStop, ipc.CommandToggle, ipc.CommandClose:
			return ipc.Response{OK: true, Message: req.Command + " handled"}
		default:
			return ipc.Response{OK: false, Error: "unsupported"}
		}
	})
	defer shutdown()

	tests := []struct {
		args   []string
		stdout string
	}{
		{args: []string{"status"}, stdout: "listening (speaking)\n"},
		{args: []string{"toggle"}, stdout: "toggle handled\n"},
		{args: []string{"say", "good", "morning"}, stdout: "broadcasting: good morning\n"},
		{args: []string{"stop"}, stdout: "stop handled\n"},
		{args: []string{"close"}, stdout: "close handled\n"},
	}
	for _, tc := range tests {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		runner := Runner{Stdout: stdout, Stderr: stderr}

		exitCode := runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, tc.args...))
		require.Equal(t, 0, exitCode, tc.args)
		require.Equal(t, tc.stdout, stdout.String(), tc.args)
		require.Empty(t, stderr.String(), tc.args)
	}

	var got []string
	for range tests {
		req := <-requests
		got = append(got, req.Command)
		if req.Command == ipc.CommandSay {
			require.Equal(t, "good morning", req.Text)
		}
	}
	require.Equal(t, []string{"status", "toggle", "say", "stop", "close"}, got)
}

func TestRunnerHistoryPrintsEntries(t *testing.T) {
	paths := setupRunnerEnv(t)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "hark.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		if req.Limit == 1 {
			return ipc.Response{OK: true}
		}
		return ipc.Response{OK: true, Entries: []history.Entry{
			{ID: "b", Text: "second", At: at.Add(time.Minute)},
			{ID: "a", Text: "first", At: at},
		}}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "history", "5"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "2026-03-04 05:07:07  second\n2026-03-04 05:06:07  first\n", stdout.String())

	stdout.Reset()
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "history", "1"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "no broadcasts recorded\n", stdout.String())
}

func TestRunnerCatalog(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	require.Equal(t, 0, runner.Execute(context.Background(), []string{"catalog"}))
	require.Contains(t, stdout.String(), "Banners:")
	require.Contains(t, stdout.String(), "Hot:")
	require.Contains(t, stdout.String(), "  hot1  ")
	require.Contains(t, stdout.String(), "New:")

	stdout.Reset()
	require.Equal(t, 0, runner.Execute(context.Background(), []string{"catalog", "hot2"}))
	require.Contains(t, stdout.String(), "id=hot2")
	require.Contains(t, stdout.String(), "related=hot1")

	require.Equal(t, 1, runner.Execute(context.Background(), []string{"catalog", "nope"}))
	require.Contains(t, stderr.String(), catalog.ErrNotFound.Error())
}

func TestTryForwardSuccessAndFailureResponses(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	serverCtx, cancelServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- ipc.Serve(serverCtx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			switch req.Command {
			case ipc.CommandStatus:
				return ipc.Response{OK: true, State: "listening"}
			default:
				return ipc.Response{OK: false, Error: "unsupported"}
			}
		}))
	}()

	resp, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: ipc.CommandStatus})
	require.True(t, handled)
	require.NoError(t, err)
	require.Equal(t, "listening", resp.State)

	_, handled, err = tryForward(context.Background(), socketPath, ipc.Request{Command: "dance"})
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported")

	cancelServer()
	require.NoError(t, <-serverDone)
}

func TestTryForwardDoesNotRemoveSocketPathOnForwardFailure(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	_, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: ipc.CommandStatus})
	require.False(t, handled)
	require.NoError(t, err)

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
}

func TestTryForwardTreatsReadFailuresAsHandledErrors(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			_ = conn.Close()
		}
	}()

	_, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: ipc.CommandStatus})
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "forward command \"status\":")

	<-done
	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
}

func TestRunnerDoctorCommandDispatchesAndPrintsReport(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "doctor"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "config: loaded")
	require.Contains(t, stdout.String(), "[FAIL] HYPRLAND_INSTANCE_SIGNATURE")
}

func TestRunnerDevicesCommandDispatches(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "devices"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "error:")
}

func TestRunnerRunServesClientsUntilClosed(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	configPath := writeConfig(t, `{
  // no compositor or synthesizer in tests
  "tts": {"command": "definitely-missing-tts --stdout"},
  "overlay": {"pointer_source": "none"},
  "indicator": {"enable": false, "sound_enable": false},
}`)
	socketPath := filepath.Join(paths.runtimeDir, "hark.sock")

	var daemonOut, daemonErr bytes.Buffer
	done := make(chan int, 1)
	go func() {
		runner := Runner{Stdout: &daemonOut, Stderr: &daemonErr}
		done <- runner.Execute(context.Background(), []string{"--config", configPath, "run"})
	}()

	require.Eventually(t, func() bool {
		alive, _ := ipc.Probe(context.Background(), socketPath, 100*time.Millisecond)
		return alive
	}, 5*time.Second, 20*time.Millisecond)

	second := &bytes.Buffer{}
	exitCode := Runner{Stdout: &bytes.Buffer{}, Stderr: second}.Execute(context.Background(), []string{"--config", configPath, "run"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, second.String(), "already running")

	stdout := &bytes.Buffer{}
	exitCode = Runner{Stdout: stdout, Stderr: &bytes.Buffer{}}.Execute(context.Background(), []string{"--config", configPath, "say", "tea", "time"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "broadcasting: tea time\n", stdout.String())

	stdout.Reset()
	exitCode = Runner{Stdout: stdout, Stderr: &bytes.Buffer{}}.Execute(context.Background(), []string{"--config", configPath, "history"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "tea time")

	exitCode = Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}.Execute(context.Background(), []string{"--config", configPath, "close"})
	require.Equal(t, 0, exitCode)

	select {
	case code := <-done:
		require.Equal(t, 0, code, daemonErr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not exit after close")
	}
	require.Equal(t, "closed\n", daemonOut.String())

	_, statErr := os.Stat(socketPath)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunnerStatusFallsBackToIdleWhenServerStateEmpty(t *testing.T) {
	paths := setupRunnerEnv(t)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "hark.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		require.Equal(t, ipc.CommandStatus, req.Command)
		return ipc.Response{OK: true, State: ""}
	})
	defer shutdown()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestPointerSourceAndKeywords(t *testing.T) {
	require.Equal(t, overlay.NoSource{}, pointerSource("none"))
	require.IsType(t, &overlay.HookSource{}, pointerSource(" Hook "))

	keywords := keywordsFrom(config.CommandsConfig{Broadcast: []string{"announce"}, Close: []string{"bye"}})
	require.Equal(t, command.Keywords{Broadcast: []string{"announce"}, Close: []string{"bye"}}, keywords)
}

type runnerPaths struct {
	configPath string
	runtimeDir string
}

func setupRunnerEnv(t *testing.T) runnerPaths {
	t.Helper()

	xdgStateHome := t.TempDir()
	runtimeDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	return runnerPaths{configPath: writeConfig(t, "\n"), runtimeDir: runtimeDir}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}
