package indicator

import (
	"context"
	"math"
	"time"

	"github.com/rbright/hark/internal/audio"
)

type cueKind int

const (
	cueListen cueKind = iota + 1
	cueStop
	cueComplete
	cueError
	cueAlternate
)

const cueSampleRate = 16000

// note is one sine segment of a cue; zero hz or gain renders silence.
type note struct {
	hz   float64
	dur  time.Duration
	gain float64
}

func rest(d time.Duration) note { return note{dur: d} }

const cueGap = 22 * time.Millisecond

var cueScores = map[cueKind][]note{
	cueListen:    {{880, 70 * time.Millisecond, 0.18}, rest(cueGap), {1175, 70 * time.Millisecond, 0.18}},
	cueStop:      {{620, 120 * time.Millisecond, 0.18}},
	cueComplete:  {{740, 65 * time.Millisecond, 0.18}, rest(cueGap), {988, 90 * time.Millisecond, 0.18}},
	cueError:     {{480, 75 * time.Millisecond, 0.18}, rest(cueGap), {360, 90 * time.Millisecond, 0.18}},
	cueAlternate: {{660, 50 * time.Millisecond, 0.15}, rest(cueGap), {660, 50 * time.Millisecond, 0.15}},
}

var cuePCM = func() map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(cueScores))
	for kind, score := range cueScores {
		out[kind] = render(score)
	}
	return out
}()

func emitCue(ctx context.Context, kind cueKind) error {
	pcm := cuePCM[kind]
	if len(pcm) == 0 {
		return nil
	}
	return audio.PlaySamples(ctx, cueSampleRate, "hark indicator cue", pcm)
}

func render(score []note) []int16 {
	var pcm []int16
	for _, n := range score {
		pcm = append(pcm, n.samples()...)
	}
	return pcm
}

// samples renders n with linear fade in and out of up to 5ms so the cue
// does not click.
func (n note) samples() []int16 {
	count := sampleCount(n.dur)
	pcm := make([]int16, count)
	if n.hz <= 0 || n.gain <= 0 {
		return pcm
	}

	fade := min(max(count/10, 1), cueSampleRate/200)
	step := 2 * math.Pi * n.hz / cueSampleRate
	for i := range pcm {
		edge := min(i, count-1-i)
		envelope := 1.0
		if edge < fade {
			envelope = float64(edge) / float64(fade)
		}
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * n.gain * envelope * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
