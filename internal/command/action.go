// Package command classifies recognized utterances into overlay actions.
package command

// Action is the closed set of overlay actions a voice command can request.
type Action int

const (
	ActionNone Action = iota
	ActionStartBroadcast
	ActionStopBroadcast
	ActionAdjustVolume
	ActionAdjustSpeed
	ActionAdjustPitch
	ActionCloseFloatingWindow
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionStartBroadcast:
		return "start_broadcast"
	case ActionStopBroadcast:
		return "stop_broadcast"
	case ActionAdjustVolume:
		return "adjust_volume"
	case ActionAdjustSpeed:
		return "adjust_speed"
	case ActionAdjustPitch:
		return "adjust_pitch"
	case ActionCloseFloatingWindow:
		return "close_floating_window"
	default:
		return "unknown"
	}
}

// Result is one classified utterance. It is handed to the listener and dropped.
type Result struct {
	Success       bool
	Message       string
	SourceCommand string
	Action        Action
	// Payload is the text to broadcast for ActionStartBroadcast.
	Payload string
	// Value is the extracted level for the adjust actions.
	Value int
}
