// Package assistant coordinates the overlay's listening lifecycle, voice
// command dispatch, and broadcast playback.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/hark/internal/command"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/gesture"
	"github.com/rbright/hark/internal/history"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/speech"
	"github.com/rbright/hark/internal/tts"
)

// Dispatcher serializes work onto the controller's queue.
type Dispatcher interface {
	Post(func()) bool
	Do(context.Context, func()) error
}

// Recognizer is the controller-facing subset of speech.Recognizer.
type Recognizer interface {
	SetListener(speech.Listener)
	Start(ctx context.Context, locale string) error
	Stop()
	Cancel()
	Destroy()
}

// Speaker is the controller-facing subset of tts.Speaker.
type Speaker interface {
	SetListener(tts.Listener)
	Speak(text string, volume float64) (string, bool)
	Stop()
	Speaking() bool
	SetVolume(level int)
	SetRate(level int)
	SetPitch(level int)
	Release()
}

// History records broadcasts. A nil History disables recording.
type History interface {
	Record(context.Context, string) (history.Entry, error)
	Recent(context.Context, int) ([]history.Entry, error)
}

// Options carries per-run settings.
type Options struct {
	Locale string
	// Volume, Rate, and Pitch are initial 0..100 levels.
	Volume int
	Rate   int
	Pitch  int
	Logger *slog.Logger
}

// Controller owns the listening state machine. Everything except State,
// Done, Handle, and Shutdown must run on the dispatcher's queue.
type Controller struct {
	queue       Dispatcher
	recognizer  Recognizer
	speaker     Speaker
	interpreter *command.Interpreter
	indicator   indicator.Controller
	history     History
	locale      string
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	alive  atomic.Bool

	mu     sync.RWMutex
	state  fsm.State
	volume int

	done      chan struct{}
	closeOnce sync.Once
}

// New wires the controller as the listener of recognizer, speaker, and
// interpreter.
func New(
	queue Dispatcher,
	recognizer Recognizer,
	speaker Speaker,
	interpreter *command.Interpreter,
	ind indicator.Controller,
	hist History,
	opts Options,
) *Controller {
	if ind == nil {
		ind = indicator.Noop{}
	}
	if interpreter == nil {
		interpreter = command.New(command.Keywords{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		queue:       queue,
		recognizer:  recognizer,
		speaker:     speaker,
		interpreter: interpreter,
		indicator:   ind,
		history:     hist,
		locale:      strings.TrimSpace(opts.Locale),
		logger:      opts.Logger,
		ctx:         ctx,
		cancel:      cancel,
		state:       fsm.StateIdle,
		volume:      clampLevel(opts.Volume),
		done:        make(chan struct{}),
	}
	c.alive.Store(true)

	speaker.SetVolume(c.volume)
	speaker.SetRate(opts.Rate)
	speaker.SetPitch(opts.Pitch)

	recognizer.SetListener(speechEvents{c})
	speaker.SetListener(playbackEvents{c})
	interpreter.SetListener(c.apply)
	return c
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Done is closed once a close command has been accepted.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// GestureCallbacks maps overlay gestures onto controller actions.
func (c *Controller) GestureCallbacks() gesture.Callbacks {
	return gesture.Callbacks{
		OnTap:            func() { c.Toggle() },
		OnLongPressStart: func() { c.indicator.EnterAlternate(c.ctx) },
		OnLongPressEnd:   func() { c.indicator.ExitAlternate(c.ctx) },
	}
}

// Toggle starts listening when idle and finishes the utterance when
// listening. It reports what it did.
func (c *Controller) Toggle() string {
	switch c.State() {
	case fsm.StateIdle:
		if err := c.startListening(); err != nil {
			return "listening failed: " + err.Error()
		}
		return "listening"
	case fsm.StateListening:
		c.recognizer.Stop()
		return "stop requested"
	default:
		return "already processing"
	}
}

// Shutdown tears down engines and drops late callbacks. It must not run on
// the dispatcher's queue.
func (c *Controller) Shutdown() {
	if !c.alive.CompareAndSwap(true, false) {
		return
	}
	c.cancel()
	c.recognizer.Destroy()
	c.speaker.Release()

	hideCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.indicator.Hide(hideCtx)
}

// Handle serves IPC commands for the running daemon.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	if req.Command == ipc.CommandHistory {
		return c.handleHistory(ctx, req.Limit)
	}

	var resp ipc.Response
	if err := c.queue.Do(ctx, func() { resp = c.handle(req) }); err != nil {
		return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
	}
	return resp
}

func (c *Controller) handle(req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		message := ""
		if c.speaker.Speaking() {
			message = "speaking"
		}
		return c.ok(message)
	case ipc.CommandToggle:
		return c.ok(c.Toggle())
	case ipc.CommandSay:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return c.fail("say requires text")
		}
		if err := c.broadcast(text); err != nil {
			return c.fail(err.Error())
		}
		c.indicator.ShowMessage(c.ctx, "broadcasting: "+text)
		return c.ok("broadcasting: " + text)
	case ipc.CommandStop:
		c.speaker.Stop()
		if c.State().Active() {
			c.recognizer.Cancel()
			_ = c.transition(fsm.EventCancel)
			c.indicator.Hide(c.ctx)
		}
		return c.ok("stopped")
	case ipc.CommandClose:
		c.requestClose()
		return c.ok("closing")
	default:
		return c.fail(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (c *Controller) handleHistory(ctx context.Context, limit int) ipc.Response {
	if c.history == nil {
		return c.fail("history is disabled")
	}
	entries, err := c.history.Recent(ctx, limit)
	if err != nil {
		return c.fail(err.Error())
	}
	return ipc.Response{OK: true, State: string(c.State()), Entries: entries}
}

func (c *Controller) startListening() error {
	if err := c.transition(fsm.EventStart); err != nil {
		return err
	}
	c.indicator.ShowListening(c.ctx)

	if err := c.recognizer.Start(c.ctx, c.locale); err != nil {
		c.logWarn("start listening failed", err)
		c.indicator.ShowError(c.ctx, speech.CodeOf(err).Message())
		c.toErrorAndReset()
		return err
	}
	return nil
}

// apply performs the action a classified utterance asks for.
func (c *Controller) apply(result command.Result) {
	c.logInfo("command classified",
		"action", result.Action.String(),
		"success", result.Success,
		"message", result.Message,
	)
	if !result.Success {
		c.indicator.ShowError(c.ctx, result.Message)
		return
	}

	switch result.Action {
	case command.ActionStartBroadcast:
		if err := c.broadcast(result.Payload); err != nil {
			c.indicator.ShowError(c.ctx, err.Error())
			return
		}
	case command.ActionStopBroadcast:
		c.speaker.Stop()
	case command.ActionAdjustVolume, command.ActionAdjustSpeed, command.ActionAdjustPitch:
		result.Message = c.applyLevel(result)
	case command.ActionCloseFloatingWindow:
		c.requestClose()
	}
	c.indicator.ShowMessage(c.ctx, result.Message)
}

var levelNames = map[command.Action]string{
	command.ActionAdjustVolume: "volume",
	command.ActionAdjustSpeed:  "speed",
	command.ActionAdjustPitch:  "pitch",
}

// applyLevel sets a 0..100 speaker level and returns the message to show,
// naming the value actually applied when the spoken one was out of range.
func (c *Controller) applyLevel(result command.Result) string {
	value := clampLevel(result.Value)
	switch result.Action {
	case command.ActionAdjustVolume:
		c.mu.Lock()
		c.volume = value
		c.mu.Unlock()
		c.speaker.SetVolume(value)
	case command.ActionAdjustSpeed:
		c.speaker.SetRate(value)
	case command.ActionAdjustPitch:
		c.speaker.SetPitch(value)
	}
	if value == result.Value {
		return result.Message
	}
	return fmt.Sprintf("%s set to %d (range is 0-100)", levelNames[result.Action], value)
}

func (c *Controller) broadcast(text string) error {
	c.mu.RLock()
	gain := float64(c.volume) / 100
	c.mu.RUnlock()

	id, ok := c.speaker.Speak(text, gain)
	if !ok {
		return errors.New("broadcast rejected")
	}
	c.logInfo("broadcast started", "utterance_id", id, "text_length", len(text))

	if c.history != nil {
		ctx, cancel := context.WithTimeout(c.ctx, time.Second)
		defer cancel()
		if _, err := c.history.Record(ctx, text); err != nil {
			c.logWarn("record broadcast failed", err)
		}
	}
	return nil
}

func (c *Controller) requestClose() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Controller) ok(message string) ipc.Response {
	return ipc.Response{OK: true, State: string(c.State()), Message: message}
}

func (c *Controller) fail(message string) ipc.Response {
	return ipc.Response{OK: false, State: string(c.State()), Error: message}
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

func (c *Controller) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

func (c *Controller) logWarn(message string, err error) {
	if c.logger == nil || err == nil {
		return
	}
	c.logger.Warn(message, "error", err.Error(), "state", string(c.State()))
}

func clampLevel(level int) int {
	return min(max(level, 0), 100)
}
