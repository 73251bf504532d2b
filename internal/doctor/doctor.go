// Package doctor checks whether this machine can run the hark overlay: config,
// compositor, synthesizer, microphone, recognizer, and history storage.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/asr"
	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/history"
	"github.com/rbright/hark/internal/hypr"
	"github.com/rbright/hark/internal/ipc"
)

const probeTimeout = 2 * time.Second

type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "OK"
	case StatusWarn:
		return "WARN"
	default:
		return "FAIL"
	}
}

type Check struct {
	Name    string
	Status  Status
	Message string
}

func pass(name, format string, args ...any) Check {
	return Check{Name: name, Status: StatusPass, Message: fmt.Sprintf(format, args...)}
}

func warn(name, format string, args ...any) Check {
	return Check{Name: name, Status: StatusWarn, Message: fmt.Sprintf(format, args...)}
}

func fail(name string, err error) Check {
	return Check{Name: name, Status: StatusFail, Message: err.Error()}
}

type Report struct {
	Checks []Check
}

// OK is true when nothing failed; warnings do not count.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if check.Status == StatusFail {
			return false
		}
	}
	return true
}

func (r Report) String() string {
	lines := make([]string, len(r.Checks))
	for i, check := range r.Checks {
		lines[i] = fmt.Sprintf("[%s] %s: %s", check.Status, check.Name, check.Message)
	}
	return strings.Join(lines, "\n")
}

type probe func(context.Context, config.Loaded) Check

// Run executes every probe concurrently and reports them in a fixed order.
func Run(ctx context.Context, loaded config.Loaded) Report {
	probes := []probe{
		checkConfig,
		func(context.Context, config.Loaded) Check {
			return checkEnv("HYPRLAND_INSTANCE_SIGNATURE", "Hyprland session detected")
		},
	}
	if strings.EqualFold(strings.TrimSpace(loaded.Config.Overlay.PointerSource), "hook") {
		probes = append(probes, func(context.Context, config.Loaded) Check {
			return checkEnv("DISPLAY", "X display available for pointer hook")
		})
	}
	probes = append(probes,
		func(context.Context, config.Loaded) Check {
			return checkBinary("hyprctl", "overlay moves require hyprctl")
		},
		func(_ context.Context, l config.Loaded) Check {
			return checkCommand(l.Config.TTS.Command.Argv, "tts.command")
		},
		func(ctx context.Context, l config.Loaded) Check { return checkAudioSelection(ctx, l.Config) },
		func(ctx context.Context, l config.Loaded) Check { return checkASRHealth(ctx, l.Config) },
		func(ctx context.Context, l config.Loaded) Check { return checkOverlayWindow(ctx, l.Config) },
		func(_ context.Context, l config.Loaded) Check { return checkHistoryDir(l.Config) },
		func(ctx context.Context, _ config.Loaded) Check { return checkDaemon(ctx) },
	)

	checks := make([]Check, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = p(ctx, loaded)
		}()
	}
	wg.Wait()
	return Report{Checks: checks}
}

func checkConfig(_ context.Context, loaded config.Loaded) Check {
	switch {
	case !loaded.Exists:
		return warn("config", "%q not found; using defaults", loaded.Path)
	case len(loaded.Warnings) > 0:
		return warn("config", "loaded %q with %d warning(s)", loaded.Path, len(loaded.Warnings))
	}
	return pass("config", "loaded %q", loaded.Path)
}

func checkEnv(name string, okMsg string) Check {
	if strings.TrimSpace(os.Getenv(name)) == "" {
		return fail(name, fmt.Errorf("%s is empty", name))
	}
	return pass(name, "%s", okMsg)
}

func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return fail(name, errors.New("command is empty"))
	}
	return checkBinary(argv[0], name+" command is available")
}

func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fail(bin, fmt.Errorf("binary not found in PATH: %s", bin))
	}
	return pass(bin, "found at %s (%s)", path, okMsg)
}

// checkAudioSelection resolves the microphone the way a listen would.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return fail("audio.device", err)
	}
	if selection.Warning != "" {
		return warn("audio.device", "selected %q (%s)", selection.Device.ID, selection.Warning)
	}
	return pass("audio.device", "selected %q", selection.Device.ID)
}

func checkASRHealth(ctx context.Context, cfg config.Config) Check {
	endpoint := strings.TrimSpace(cfg.ASR.GRPC)
	if endpoint == "" {
		return fail("asr.health", errors.New("asr.grpc is empty"))
	}
	if err := asr.CheckHealth(ctx, endpoint, probeTimeout); err != nil {
		return fail("asr.health", err)
	}
	return pass("asr.health", "serving at %s", endpoint)
}

func checkOverlayWindow(ctx context.Context, cfg config.Config) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client, err := hypr.QueryClient(ctx, cfg.Overlay.WindowClass)
	if err != nil {
		return fail("overlay.window", err)
	}
	return pass("overlay.window", "%s at %d,%d (%dx%d)",
		client.Class, client.At[0], client.At[1], client.Size[0], client.Size[1])
}

// checkHistoryDir confirms the broadcast log can be created.
func checkHistoryDir(cfg config.Config) Check {
	if !cfg.History.Enable {
		return warn("history.dir", "history disabled")
	}
	dir, err := history.DefaultDir()
	if err != nil {
		return fail("history.dir", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fail("history.dir", err)
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fail("history.dir", fmt.Errorf("%s is not writable: %w", dir, err))
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return pass("history.dir", "writable at %s", dir)
}

// checkDaemon reports whether a daemon already owns the runtime socket.
func checkDaemon(ctx context.Context) Check {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return fail("daemon", err)
	}
	alive, err := ipc.Probe(ctx, path, 200*time.Millisecond)
	switch {
	case err != nil:
		return fail("daemon", err)
	case !alive:
		return warn("daemon", "not running (start with `hark run`)")
	}
	return pass("daemon", "running at %s", path)
}
