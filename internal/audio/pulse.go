// Package audio talks to the session Pulse server: it lists and picks
// microphone sources, captures recognizer PCM, and plays synthesized speech.
package audio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

const (
	// SampleRate is the capture rate sent to the recognizer.
	SampleRate = 16000

	// frameBytes is 20ms of 16kHz mono s16.
	frameBytes = 640

	applicationName = "hark"
)

// Icon names reported to the Pulse server per stream purpose.
const (
	iconMicrophone = "audio-input-microphone"
	iconSpeakers   = "audio-speakers"
)

func dial(icon string) (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(applicationName),
		pulse.ClientApplicationIconName(icon),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}
