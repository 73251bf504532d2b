package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Selection is the source to capture from. Warning explains a fallback.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// SelectDevice resolves the audio.input and audio.fallback preferences
// against the live source list.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return choose(devices, input, fallback)
}

// choose picks the preferred source, falling back once when it is muted or
// unplugged. "default" and "" both mean the server default source.
func choose(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}
	input = normalizePreference(input)
	fallback = normalizePreference(fallback)

	primary, err := lookup(devices, input)
	switch {
	case err != nil:
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", input)
	case primary == nil:
		return Selection{}, errors.New("default audio source is unavailable")
	}

	reason := primary.problem()
	if reason == "" {
		return Selection{Device: *primary}, nil
	}

	alternate, err := lookup(devices, fallback)
	switch {
	case err != nil:
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, fallback)
	case alternate == nil:
		return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: default audio source is unavailable", primary.ID, reason)
	}

	switch alternate.problem() {
	case "muted":
		return Selection{}, fmt.Errorf("audio fallback device %q is muted", alternate.ID)
	case "unavailable":
		return Selection{}, fmt.Errorf("audio fallback device %q is not available", alternate.ID)
	}

	return Selection{
		Device:   *alternate,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, alternate.ID),
		Fallback: alternate.ID != primary.ID,
	}, nil
}

func normalizePreference(pref string) string {
	pref = strings.ToLower(strings.TrimSpace(pref))
	if pref == "default" {
		return ""
	}
	return pref
}

// lookup returns the default source for an empty preference (nil when the
// server has none) or the first source matching pref.
func lookup(devices []Device, pref string) (*Device, error) {
	for i := range devices {
		if pref == "" && devices[i].Default {
			return &devices[i], nil
		}
		if pref != "" && devices[i].matches(pref) {
			return &devices[i], nil
		}
	}
	if pref == "" {
		return nil, nil
	}
	return nil, errors.New("no match")
}
