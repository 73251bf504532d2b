package tts

import (
	"math"
	"sync"

	"github.com/rbright/hark/internal/audio"
)

// Control is live playback state shared between a Speaker and its Player.
type Control struct {
	mu     sync.Mutex
	gain   float64
	paused bool
}

func newControl() *Control {
	return &Control{gain: 1}
}

// Gain returns the linear gain in 0..1.
func (c *Control) Gain() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gain
}

// Paused reports whether playback should emit silence.
func (c *Control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Control) setGain(gain float64) {
	if math.IsNaN(gain) {
		return
	}
	c.mu.Lock()
	c.gain = min(max(gain, 0), 1)
	c.mu.Unlock()
}

func (c *Control) setPaused(paused bool) {
	c.mu.Lock()
	c.paused = paused
	c.mu.Unlock()
}

// Source yields samples scaled by the live gain. While paused it emits
// silence and keeps its position.
func (c *Control) Source(samples []int16) audio.SampleSource {
	cursor := 0
	return func(buf []int16) (int, bool) {
		c.mu.Lock()
		paused, gain := c.paused, c.gain
		c.mu.Unlock()

		if paused {
			clear(buf)
			return len(buf), false
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if gain < 1 {
			for i := range buf[:n] {
				buf[i] = int16(math.Round(float64(buf[i]) * gain))
			}
		}
		return n, cursor >= len(samples)
	}
}
