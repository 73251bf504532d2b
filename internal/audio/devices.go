package audio

import (
	"context"
	"fmt"
	"strings"

	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device is one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// matches reports whether term (already lowercased) occurs in the source
// name or its human description.
func (d Device) matches(term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(d.ID), term) ||
		strings.Contains(strings.ToLower(d.Description), term)
}

// problem names why d cannot be captured from, or "" when it can.
func (d Device) problem() string {
	switch {
	case d.Muted:
		return "muted"
	case !d.Available:
		return "unavailable"
	}
	return ""
}

// ListDevices queries every input source along with the server default.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := dial(iconMicrophone)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	fallback, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var replies pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &replies); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(replies))
	for _, reply := range replies {
		if reply == nil {
			continue
		}
		dev := deviceFromReply(reply)
		dev.Default = dev.ID == fallback.ID()
		devices = append(devices, dev)
	}
	return devices, nil
}

func deviceFromReply(reply *pulseproto.GetSourceInfoReply) Device {
	return Device{
		ID:          reply.SourceName,
		Description: reply.Device,
		State:       stateName(reply.State),
		Available:   activePortAvailable(reply),
		Muted:       reply.Mute,
	}
}

var sourceStates = map[uint32]string{0: "running", 1: "idle", 2: "suspended"}

func stateName(state uint32) string {
	if name, ok := sourceStates[state]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// activePortAvailable treats a source without ports, or whose active port
// reports unknown (0) or yes (2), as usable.
func activePortAvailable(reply *pulseproto.GetSourceInfoReply) bool {
	if reply == nil {
		return false
	}
	for _, port := range reply.Ports {
		if port.Name == reply.ActivePortName {
			return port.Available != 1
		}
	}
	return true
}
