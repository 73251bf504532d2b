package overlay

import (
	"log/slog"

	"github.com/rbright/hark/internal/gesture"
)

// Gesture is the cycle consumer the router feeds.
type Gesture interface {
	Down(gesture.Point)
	Move(gesture.Point)
	Up(gesture.Point) gesture.Outcome
	Abort()
}

// HitTester reports whether a press lands on the overlay.
type HitTester interface {
	Contains(gesture.Point) (bool, error)
}

// Router filters the global pointer feed down to cycles that begin on the
// overlay. It must run on the same queue as the gesture handler.
type Router struct {
	target  HitTester
	gesture Gesture
	logger  *slog.Logger

	active bool
}

// NewRouter builds a router feeding g with presses that hit target.
func NewRouter(target HitTester, g Gesture, logger *slog.Logger) *Router {
	return &Router{target: target, gesture: g, logger: logger}
}

// Active reports whether a cycle is being forwarded.
func (r *Router) Active() bool {
	return r.active
}

// Handle routes one event and returns the outcome when it closes a cycle.
func (r *Router) Handle(ev PointerEvent) gesture.Outcome {
	switch ev.Kind {
	case PointerDown:
		hit, err := r.target.Contains(ev.At)
		if err != nil {
			if r.logger != nil {
				r.logger.Debug("overlay hit test failed", "error", err.Error())
			}
			hit = false
		}
		if !hit {
			if r.active {
				// The release of the previous cycle was never seen.
				r.active = false
				r.gesture.Abort()
			}
			return gesture.OutcomeNone
		}
		r.active = true
		r.gesture.Down(ev.At)
	case PointerMove:
		if r.active {
			r.gesture.Move(ev.At)
		}
	case PointerUp:
		if !r.active {
			return gesture.OutcomeNone
		}
		r.active = false
		return r.gesture.Up(ev.At)
	}
	return gesture.OutcomeNone
}
