package tts

import (
	"context"

	"github.com/rbright/hark/internal/audio"
)

const playbackMediaName = "hark broadcast"

// PulsePlayer plays clips on the default Pulse sink.
type PulsePlayer struct{}

// Play blocks until clip drains or ctx ends.
func (PulsePlayer) Play(ctx context.Context, clip Clip, ctl *Control) error {
	if len(clip.Samples) == 0 {
		return nil
	}
	return audio.Play(ctx, clip.SampleRate, playbackMediaName, ctl.Source(clip.Samples))
}
