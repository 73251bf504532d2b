package gesture

import (
	"log/slog"
	"math"
	"time"
)

const (
	DefaultLongPress     = 500 * time.Millisecond
	DefaultDragThreshold = 10.0
)

// Position is the overlay element's top-left corner in screen pixels.
type Position struct {
	X int
	Y int
}

// Point is a pointer location in screen coordinates.
type Point struct {
	X float64
	Y float64
}

// View is the positioned element a gesture manipulates.
type View interface {
	Position() (Position, error)
	MoveTo(Position) error
}

// Timer is a cancellable deferred task.
type Timer interface {
	Stop() bool
}

// Scheduler arms deferred tasks that run on the same queue as the handler.
type Scheduler interface {
	AfterFunc(time.Duration, func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(time.Duration, func()) Timer

func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) Timer {
	return f(d, fn)
}

// Callbacks are invoked synchronously from Down/Move/Up or the long-press task.
type Callbacks struct {
	OnTap            func()
	OnLongPressStart func()
	OnLongPressEnd   func()
}

// Options tunes gesture classification.
type Options struct {
	LongPress     time.Duration
	DragThreshold float64
	Logger        *slog.Logger
}

// Outcome is what a completed cycle resolved to.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeTap
	OutcomeDrag
	OutcomeLongPress
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTap:
		return "tap"
	case OutcomeDrag:
		return "drag"
	case OutcomeLongPress:
		return "long_press"
	default:
		return "none"
	}
}

// Cycle is the per-gesture bookkeeping reset at every pointer-down.
type Cycle struct {
	Origin Position
	// OriginKnown is false while the element position could not be read;
	// moves are skipped until it is.
	OriginKnown    bool
	Touch          Point
	LongPressArmed bool
	Dragging       bool
}

// Handler owns at most one active gesture cycle. It is not safe for
// concurrent use: Down, Move, Up, and the scheduler's tasks must all run on
// one queue.
type Handler struct {
	view      View
	scheduler Scheduler
	callbacks Callbacks
	longPress time.Duration
	threshold float64
	logger    *slog.Logger

	state      State
	cycle      Cycle
	timer      Timer
	generation uint64
}

// NewHandler builds a handler. Zero options take the defaults.
func NewHandler(view View, scheduler Scheduler, callbacks Callbacks, opts Options) *Handler {
	if opts.LongPress <= 0 {
		opts.LongPress = DefaultLongPress
	}
	if opts.DragThreshold <= 0 {
		opts.DragThreshold = DefaultDragThreshold
	}
	return &Handler{
		view:      view,
		scheduler: scheduler,
		callbacks: callbacks,
		longPress: opts.LongPress,
		threshold: opts.DragThreshold,
		logger:    opts.Logger,
		state:     StateIdle,
	}
}

// State returns the current cycle state.
func (h *Handler) State() State {
	return h.state
}

// Cycle returns a copy of the active cycle's bookkeeping.
func (h *Handler) Cycle() Cycle {
	return h.cycle
}

// Down starts a new cycle. A cycle already in flight is aborted first.
func (h *Handler) Down(p Point) {
	if h.state != StateIdle {
		h.Abort()
	}

	origin, err := h.view.Position()
	if err != nil {
		h.logWarn("overlay position unavailable", err)
	}

	h.cycle = Cycle{Origin: origin, OriginKnown: err == nil, Touch: p, LongPressArmed: true}
	h.transition(EventDown)

	h.generation++
	gen := h.generation
	h.timer = h.scheduler.AfterFunc(h.longPress, func() { h.fireLongPress(gen) })
}

// Move tracks pointer motion within the active cycle.
func (h *Handler) Move(p Point) {
	switch h.state {
	case StatePressed:
		dx, dy := h.delta(p)
		if !h.beyond(dx, dy) {
			return
		}
		h.disarm()
		h.cycle.Dragging = true
		h.transition(EventDrag)
		h.reposition(dx, dy)
	case StateDragging:
		dx, dy := h.delta(p)
		h.reposition(dx, dy)
	}
}

// Up completes the cycle and reports its outcome.
func (h *Handler) Up(p Point) Outcome {
	if h.state == StateIdle {
		return OutcomeNone
	}
	h.disarm()

	dx, dy := h.delta(p)
	outcome := OutcomeNone
	switch h.state {
	case StatePressed:
		if h.beyond(dx, dy) {
			h.reposition(dx, dy)
			outcome = OutcomeDrag
		} else {
			outcome = OutcomeTap
		}
	case StateDragging:
		h.reposition(dx, dy)
		outcome = OutcomeDrag
	case StateLongPressed:
		outcome = OutcomeLongPress
	}

	h.transition(EventUp)
	h.cycle = Cycle{}

	switch outcome {
	case OutcomeTap:
		call(h.callbacks.OnTap)
	case OutcomeLongPress:
		call(h.callbacks.OnLongPressEnd)
	}
	return outcome
}

// Abort drops the active cycle without producing a tap or drag.
func (h *Handler) Abort() {
	if h.state == StateIdle {
		return
	}
	h.disarm()
	wasLongPressed := h.state == StateLongPressed
	h.transition(EventAbort)
	h.cycle = Cycle{}
	if wasLongPressed {
		call(h.callbacks.OnLongPressEnd)
	}
}

func (h *Handler) fireLongPress(gen uint64) {
	if gen != h.generation || h.state != StatePressed {
		return
	}
	h.timer = nil
	h.cycle.LongPressArmed = false
	h.transition(EventLongPress)
	call(h.callbacks.OnLongPressStart)
}

func (h *Handler) disarm() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.cycle.LongPressArmed = false
	// Invalidate any fire already queued behind this call.
	h.generation++
}

func (h *Handler) delta(p Point) (float64, float64) {
	return p.X - h.cycle.Touch.X, p.Y - h.cycle.Touch.Y
}

func (h *Handler) beyond(dx, dy float64) bool {
	return math.Abs(dx) > h.threshold || math.Abs(dy) > h.threshold
}

func (h *Handler) reposition(dx, dy float64) {
	if !h.cycle.OriginKnown {
		// The element has not moved yet this cycle, so a late read is still
		// the origin.
		origin, err := h.view.Position()
		if err != nil {
			h.logWarn("overlay position unavailable", err)
			return
		}
		h.cycle.Origin = origin
		h.cycle.OriginKnown = true
	}
	next := Position{
		X: h.cycle.Origin.X + int(math.Round(dx)),
		Y: h.cycle.Origin.Y + int(math.Round(dy)),
	}
	if err := h.view.MoveTo(next); err != nil {
		h.logWarn("overlay reposition failed", err)
	}
}

func (h *Handler) transition(event Event) {
	next, err := Transition(h.state, event)
	if err != nil {
		h.logWarn("gesture transition rejected", err)
		return
	}
	h.state = next
}

func (h *Handler) logWarn(message string, err error) {
	if h.logger == nil || err == nil {
		return
	}
	h.logger.Warn(message, "error", err.Error(), "state", string(h.state))
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
