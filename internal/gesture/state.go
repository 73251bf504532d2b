// Package gesture classifies pointer cycles on the overlay into tap, drag, or long-press.
package gesture

import "fmt"

type State string

type Event string

const (
	StateIdle        State = "idle"
	StatePressed     State = "pressed"
	StateDragging    State = "dragging"
	StateLongPressed State = "long_pressed"
)

const (
	EventDown      Event = "down"
	EventDrag      Event = "drag"
	EventLongPress Event = "long_press"
	EventUp        Event = "up"
	EventAbort     Event = "abort"
)

// Transition is the pure state table for one gesture cycle.
func Transition(current State, event Event) (State, error) {
	if event == EventAbort {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventDown:
			return StatePressed, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePressed:
		switch event {
		case EventDrag:
			return StateDragging, nil
		case EventLongPress:
			return StateLongPressed, nil
		case EventUp:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDragging, StateLongPressed:
		switch event {
		case EventUp:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
