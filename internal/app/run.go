package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/rbright/hark/internal/asr"
	"github.com/rbright/hark/internal/assistant"
	"github.com/rbright/hark/internal/command"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/eventloop"
	"github.com/rbright/hark/internal/gesture"
	"github.com/rbright/hark/internal/history"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/overlay"
	"github.com/rbright/hark/internal/speech"
	"github.com/rbright/hark/internal/tts"
)

// commandRun owns the runtime socket and runs the overlay daemon until a
// close command or signal.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	owner, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 8})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer owner.Close()

	daemon, release, err := buildDaemon(cfg, logger, owner)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err.Error())
		return 1
	}
	defer release()

	logger.Info("daemon start",
		"socket", socketPath,
		"window_class", cfg.Overlay.WindowClass,
		"pointer_source", cfg.Overlay.PointerSource,
		"history", cfg.History.Enable,
	)
	if err := daemon.Run(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon failed", "error", err.Error())
		return 1
	}
	logger.Info("daemon stopped")
	fmt.Fprintln(r.Stdout, "closed")
	return 0
}

// buildDaemon wires engines, the controller, and the overlay around one
// event loop. release closes what outlives Daemon.Run.
func buildDaemon(cfg config.Config, logger *slog.Logger, listener net.Listener) (*assistant.Daemon, func(), error) {
	loop := eventloop.New()

	var hist assistant.History
	closeHistory := func() {}
	if cfg.History.Enable {
		dir, err := history.DefaultDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve history dir: %w", err)
		}
		store, err := history.Open(history.Options{
			Dir:        dir,
			MaxEntries: cfg.History.MaxEntries,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		hist = store
		closeHistory = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close history failed", "error", err.Error())
			}
		}
	}

	recognizer := speech.NewRecognizer(asr.NewEngine(cfg, logger), loop.Post, logger)
	speaker := tts.NewSpeaker(tts.NewCommandEngine(cfg.TTS.Command.Argv, cfg.TTS.Voice), tts.PulsePlayer{}, logger)
	ind := indicator.NewHyprNotify(cfg.Indicator, logger)

	controller := assistant.New(loop, recognizer, speaker, command.New(keywordsFrom(cfg.Commands)), ind, hist, assistant.Options{
		Locale: cfg.ASR.LanguageCode,
		Volume: cfg.TTS.Volume,
		Rate:   cfg.TTS.Rate,
		Pitch:  cfg.TTS.Pitch,
		Logger: logger,
	})

	window := overlay.NewWindow(cfg.Overlay.WindowClass)
	scheduler := gesture.SchedulerFunc(func(d time.Duration, fn func()) gesture.Timer {
		return loop.AfterFunc(d, fn)
	})
	handler := gesture.NewHandler(window, scheduler, controller.GestureCallbacks(), gesture.Options{
		LongPress:     time.Duration(cfg.Gesture.LongPressMS) * time.Millisecond,
		DragThreshold: cfg.Gesture.DragThreshold,
		Logger:        logger,
	})

	daemon := &assistant.Daemon{
		Loop:       loop,
		Controller: controller,
		Listener:   listener,
		Pointer:    pointerSource(cfg.Overlay.PointerSource),
		Router:     overlay.NewRouter(window, handler, logger),
		Logger:     logger,
	}
	release := func() {
		ind.Wait()
		closeHistory()
	}
	return daemon, release, nil
}

func pointerSource(name string) overlay.Source {
	if strings.EqualFold(strings.TrimSpace(name), "hook") {
		return overlay.NewHookSource()
	}
	return overlay.NoSource{}
}

func keywordsFrom(cfg config.CommandsConfig) command.Keywords {
	return command.Keywords{
		Broadcast: cfg.Broadcast,
		Stop:      cfg.Stop,
		Volume:    cfg.Volume,
		Speed:     cfg.Speed,
		Pitch:     cfg.Pitch,
		Close:     cfg.Close,
	}
}
