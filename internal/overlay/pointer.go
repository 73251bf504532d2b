package overlay

import (
	"context"

	hook "github.com/robotn/gohook"

	"github.com/rbright/hark/internal/gesture"
)

// PointerKind is the phase of a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota + 1
	PointerMove
	PointerUp
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	default:
		return "unknown"
	}
}

// PointerEvent is one primary-button event in absolute screen coordinates.
type PointerEvent struct {
	Kind PointerKind
	At   gesture.Point
}

// Source delivers pointer events until ctx ends.
type Source interface {
	Run(ctx context.Context, emit func(PointerEvent)) error
}

const primaryButton = 1

// HookSource reads the global pointer through gohook. Only the primary
// button is reported; plain motion without a held button is ignored.
type HookSource struct {
	start func() chan hook.Event
	end   func()
}

// NewHookSource builds a source backed by the process-wide gohook hook.
func NewHookSource() *HookSource {
	return &HookSource{start: hook.Start, end: hook.End}
}

// Run blocks, forwarding translated events to emit, until ctx is done or
// the hook channel closes.
func (s *HookSource) Run(ctx context.Context, emit func(PointerEvent)) error {
	events := s.start()
	defer s.end()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if pe, ok := translate(ev); ok {
				emit(pe)
			}
		}
	}
}

// translate maps gohook kinds onto pointer phases. gohook names the
// libuiohook "pressed" event MouseHold and "released" MouseDown.
func translate(ev hook.Event) (PointerEvent, bool) {
	at := gesture.Point{X: float64(ev.X), Y: float64(ev.Y)}
	switch ev.Kind {
	case hook.MouseHold:
		if ev.Button != primaryButton {
			return PointerEvent{}, false
		}
		return PointerEvent{Kind: PointerDown, At: at}, true
	case hook.MouseDrag:
		return PointerEvent{Kind: PointerMove, At: at}, true
	case hook.MouseDown:
		if ev.Button != primaryButton {
			return PointerEvent{}, false
		}
		return PointerEvent{Kind: PointerUp, At: at}, true
	default:
		return PointerEvent{}, false
	}
}

// NoSource never emits; gestures are then driven over IPC only.
type NoSource struct{}

func (NoSource) Run(ctx context.Context, _ func(PointerEvent)) error {
	<-ctx.Done()
	return ctx.Err()
}
