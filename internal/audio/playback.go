package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// SampleSource fills buf with mono s16 samples. done reports that no samples
// follow the n just written.
type SampleSource func(buf []int16) (n int, done bool)

// Play streams source to the default Pulse sink and blocks until it drains
// or ctx ends.
func Play(ctx context.Context, sampleRate int, mediaName string, source SampleSource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := dial(iconSpeakers)
	if err != nil {
		return err
	}
	defer client.Close()

	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil {
			return 0, pulse.EndOfData
		}
		n, done := source(buf)
		if done {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName(mediaName),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play %s: %w", mediaName, err)
	}
	return ctx.Err()
}

// PlaySamples plays a fixed buffer once.
func PlaySamples(ctx context.Context, sampleRate int, mediaName string, samples []int16) error {
	return Play(ctx, sampleRate, mediaName, SliceSource(samples))
}

// SliceSource yields samples front to back.
func SliceSource(samples []int16) SampleSource {
	cursor := 0
	return func(buf []int16) (int, bool) {
		n := copy(buf, samples[cursor:])
		cursor += n
		return n, cursor >= len(samples)
	}
}
