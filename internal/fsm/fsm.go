// Package fsm is the recognition lifecycle the controller steps through.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateError      State = "error"
)

const (
	EventStart       Event = "start"
	EventEndOfSpeech Event = "end_of_speech"
	EventResult      Event = "result"
	EventCancel      Event = "cancel"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

// edges lists every legal move except EventFail, which any known state accepts.
// A result may arrive straight from listening when the engine never reports
// end of speech.
var edges = map[State]map[Event]State{
	StateIdle: {
		EventStart: StateListening,
	},
	StateListening: {
		EventEndOfSpeech: StateProcessing,
		EventResult:      StateIdle,
		EventCancel:      StateIdle,
	},
	StateProcessing: {
		EventResult: StateIdle,
		EventCancel: StateIdle,
	},
	StateError: {
		EventReset: StateIdle,
	},
}

// TransitionError reports an event the current state does not accept.
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s --(%s)--> ?", e.From, e.Event)
}

// Transition returns the state after event. On error the state is unchanged.
func Transition(current State, event Event) (State, error) {
	out, known := edges[current]
	if !known {
		return current, fmt.Errorf("unknown state %q", current)
	}
	if event == EventFail {
		return StateError, nil
	}
	next, ok := out[event]
	if !ok {
		return current, &TransitionError{From: current, Event: event}
	}
	return next, nil
}

// Active reports whether a recognition session is underway.
func (s State) Active() bool {
	return s == StateListening || s == StateProcessing
}
