package fsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	allStates = []State{StateIdle, StateListening, StateProcessing, StateError}
	allEvents = []Event{EventStart, EventEndOfSpeech, EventResult, EventCancel, EventFail, EventReset}
)

func TestTransitionRecognitionCycle(t *testing.T) {
	state := StateIdle
	for _, step := range []struct {
		event Event
		want  State
	}{
		{EventStart, StateListening},
		{EventEndOfSpeech, StateProcessing},
		{EventResult, StateIdle},
		{EventStart, StateListening},
		{EventResult, StateIdle},
		{EventStart, StateListening},
		{EventFail, StateError},
		{EventReset, StateIdle},
	} {
		next, err := Transition(state, step.event)
		require.NoError(t, err, "%s --(%s)", state, step.event)
		require.Equal(t, step.want, next)
		state = next
	}
}

func TestTransitionRejectsWithTypedError(t *testing.T) {
	for _, tc := range []struct {
		state State
		event Event
	}{
		{StateIdle, EventEndOfSpeech},
		{StateIdle, EventCancel},
		{StateIdle, EventResult},
		{StateListening, EventStart},
		{StateProcessing, EventStart},
		{StateProcessing, EventEndOfSpeech},
		{StateError, EventStart},
		{StateError, EventCancel},
	} {
		next, err := Transition(tc.state, tc.event)
		require.Equal(t, tc.state, next)

		var te *TransitionError
		require.True(t, errors.As(err, &te), "%s --(%s)", tc.state, tc.event)
		require.Equal(t, TransitionError{From: tc.state, Event: tc.event}, *te)
		require.Contains(t, err.Error(), "invalid transition")
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventFail)
	require.ErrorContains(t, err, "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestActive(t *testing.T) {
	require.True(t, StateListening.Active())
	require.True(t, StateProcessing.Active())
	require.False(t, StateIdle.Active())
	require.False(t, StateError.Active())
}

func TestTransitionStaysWithinKnownStates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := rapid.SampledFrom(allStates).Draw(t, "start")
		events := rapid.SliceOf(rapid.SampledFrom(allEvents)).Draw(t, "events")

		for _, event := range events {
			next, err := Transition(state, event)
			if err != nil {
				if next != state {
					t.Fatalf("rejected %s moved %s to %s", event, state, next)
				}
				continue
			}
			if _, known := edges[next]; !known {
				t.Fatalf("%s --(%s) reached unknown %s", state, event, next)
			}
			if event == EventFail && next != StateError {
				t.Fatalf("fail from %s reached %s", state, next)
			}
			state = next
		}
	})
}
