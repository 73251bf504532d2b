// Package indicator surfaces assistant state through compositor
// notifications and short audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
)

// Controller is the assistant-facing indicator contract.
type Controller interface {
	ShowListening(context.Context)
	ShowProcessing(context.Context)
	ShowMessage(context.Context, string)
	ShowError(context.Context, string)
	EnterAlternate(context.Context)
	ExitAlternate(context.Context)
	Hide(context.Context)
}

const (
	colorListening  = "rgb(89b4fa)"
	colorProcessing = "rgb(cba6f7)"
	colorMessage    = "rgb(a6e3a1)"
	colorError      = "rgb(f38ba8)"
	colorAlternate  = "rgb(f9e2af)"

	iconInfo  = 1
	iconHint  = 2
	iconError = 3
	iconOK    = 5

	stickyTimeoutMS  = 300000
	messageTimeoutMS = 2500
)

// HyprNotify routes indicator output via Hyprland or desktop DBus based on
// the configured backend.
type HyprNotify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	play     func(context.Context, cueKind) error

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
	cues                  sync.WaitGroup
}

// NewHyprNotify creates an indicator controller from config.
func NewHyprNotify(cfg config.IndicatorConfig, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFromEnv(),
		play:     emitCue,
	}
}

// ShowListening signals capture start and emits the start cue.
func (h *HyprNotify) ShowListening(ctx context.Context) {
	h.playCue(cueListen)
	h.show(ctx, iconInfo, stickyTimeoutMS, colorListening, h.messages.listening)
}

// ShowProcessing signals that capture ended and recognition is pending.
func (h *HyprNotify) ShowProcessing(ctx context.Context) {
	h.playCue(cueStop)
	h.show(ctx, iconInfo, stickyTimeoutMS, colorProcessing, h.messages.processing)
}

// ShowMessage displays a short-lived command result.
func (h *HyprNotify) ShowMessage(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	h.playCue(cueComplete)
	h.show(ctx, iconOK, messageTimeoutMS, colorMessage, text)
}

// ShowError displays an error-state indicator message.
func (h *HyprNotify) ShowError(ctx context.Context, text string) {
	h.playCue(cueError)
	if text == "" {
		text = h.messages.errorText
	}
	timeout := h.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	h.show(ctx, iconError, timeout, colorError, text)
}

// EnterAlternate marks the overlay's long-press mode.
func (h *HyprNotify) EnterAlternate(ctx context.Context) {
	h.playCue(cueAlternate)
	h.show(ctx, iconHint, stickyTimeoutMS, colorAlternate, h.messages.alternate)
}

// ExitAlternate clears the long-press marker.
func (h *HyprNotify) ExitAlternate(ctx context.Context) {
	h.Hide(ctx)
}

// Hide dismisses the active indicator surface.
func (h *HyprNotify) Hide(ctx context.Context) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

// Wait blocks until queued cues finish.
func (h *HyprNotify) Wait() {
	h.cues.Wait()
}

func (h *HyprNotify) show(ctx context.Context, icon int, timeoutMS int, color string, text string) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, icon, timeoutMS, color, text)
	})
}

// notify dispatches indicator output through the configured backend.
func (h *HyprNotify) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if h.desktopBackend() {
		return h.notifyDesktop(ctx, urgencyFor(icon), timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (h *HyprNotify) dismiss(ctx context.Context) error {
	if h.desktopBackend() {
		return h.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

func (h *HyprNotify) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(h.cfg.Backend), "desktop")
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (h *HyprNotify) notifyDesktop(ctx context.Context, urgency byte, timeoutMS int, text string) error {
	h.mu.Lock()
	replaceID := h.desktopNotificationID
	h.mu.Unlock()

	appName := strings.TrimSpace(h.cfg.DesktopAppName)
	if appName == "" {
		appName = "hark-indicator"
	}

	id, err := desktopNotify(ctx, desktopNotification{
		appName:   appName,
		replaceID: replaceID,
		summary:   text,
		urgency:   urgency,
		timeoutMS: timeoutMS,
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.desktopNotificationID = id
	h.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (h *HyprNotify) dismissDesktop(ctx context.Context) error {
	h.mu.Lock()
	id := h.desktopNotificationID
	h.desktopNotificationID = 0
	h.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (h *HyprNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		h.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (h *HyprNotify) playCue(kind cueKind) {
	if !h.cfg.SoundEnable {
		return
	}
	h.cues.Add(1)
	go func() {
		defer h.cues.Done()
		h.soundMu.Lock()
		defer h.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.play(ctx, kind); err != nil {
			h.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (h *HyprNotify) log(message string, err error) {
	if h.logger == nil || err == nil {
		return
	}
	h.logger.Debug(message, "error", err.Error())
}

// Noop discards every indicator call.
type Noop struct{}

func (Noop) ShowListening(context.Context)       {}
func (Noop) ShowProcessing(context.Context)      {}
func (Noop) ShowMessage(context.Context, string) {}
func (Noop) ShowError(context.Context, string)   {}
func (Noop) EnterAlternate(context.Context)      {}
func (Noop) ExitAlternate(context.Context)       {}
func (Noop) Hide(context.Context)                {}
