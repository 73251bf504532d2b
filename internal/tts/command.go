package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

const (
	baseWordsPerMinute = 175
	basePitch          = 50
)

// CommandEngine runs an espeak-compatible synthesizer that writes a WAV file
// to stdout and reads text from stdin.
type CommandEngine struct {
	argv  []string
	voice string
	run   func(ctx context.Context, argv []string, stdin string) ([]byte, error)
}

// NewCommandEngine builds an engine around argv (for example
// ["espeak-ng", "--stdout"]) speaking with voice.
func NewCommandEngine(argv []string, voice string) *CommandEngine {
	return &CommandEngine{
		argv:  append([]string(nil), argv...),
		voice: strings.TrimSpace(voice),
		run:   runCommand,
	}
}

// Synthesize renders text with the configured command.
func (e *CommandEngine) Synthesize(ctx context.Context, text string, voice Voice) (Clip, error) {
	if len(e.argv) == 0 {
		return Clip{}, errors.New("tts command is empty")
	}

	out, err := e.run(ctx, e.commandLine(voice), text)
	if err != nil {
		return Clip{}, err
	}
	clip, err := decodeWAV(out)
	if err != nil {
		return Clip{}, fmt.Errorf("decode %s output: %w", e.argv[0], err)
	}
	return clip, nil
}

func (e *CommandEngine) commandLine(voice Voice) []string {
	rate := voice.Rate
	if rate <= 0 {
		rate = 1
	}
	pitch := voice.Pitch
	if pitch <= 0 {
		pitch = 1
	}

	argv := append([]string(nil), e.argv...)
	if e.voice != "" {
		argv = append(argv, "-v", e.voice)
	}
	wpm := int(math.Round(baseWordsPerMinute * rate))
	pitchValue := min(int(math.Round(basePitch*pitch)), 99)
	return append(argv,
		"-s", strconv.Itoa(wpm),
		"-p", strconv.Itoa(pitchValue),
		"--stdin",
	)
}

func runCommand(ctx context.Context, argv []string, stdin string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return nil, fmt.Errorf("run %s: %w", argv[0], err)
		}
		return nil, fmt.Errorf("run %s: %w (%s)", argv[0], err, detail)
	}
	return out, nil
}

// decodeWAV extracts 16-bit PCM from a RIFF container, averaging channels
// down to mono. Streaming writers may leave chunk sizes unset; a data chunk
// that claims more than remains is read to the end.
func decodeWAV(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, errors.New("not a RIFF/WAVE stream")
	}

	var (
		channels   int
		sampleRate int
		haveFormat bool
	)
	rest := data[12:]
	for len(rest) >= 8 {
		id := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		body := rest[8:]
		if size < 0 || size > len(body) {
			size = len(body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, errors.New("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || bits != 16 {
				return Clip{}, fmt.Errorf("unsupported wav encoding (format %d, %d bits)", format, bits)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			if channels <= 0 || sampleRate <= 0 {
				return Clip{}, errors.New("invalid wav channel count or sample rate")
			}
			haveFormat = true

		case "data":
			if !haveFormat {
				return Clip{}, errors.New("data chunk before fmt chunk")
			}
			return Clip{SampleRate: sampleRate, Samples: downmix(body[:size], channels)}, nil
		}

		advance := 8 + size + size%2
		if advance > len(rest) {
			break
		}
		rest = rest[advance:]
	}
	return Clip{}, errors.New("wav data chunk not found")
}

func downmix(pcm []byte, channels int) []int16 {
	frame := 2 * channels
	frames := len(pcm) / frame
	out := make([]int16, frames)
	for i := range frames {
		sum := 0
		for ch := range channels {
			off := i*frame + ch*2
			sum += int(int16(binary.LittleEndian.Uint16(pcm[off : off+2])))
		}
		out[i] = int16(sum / channels)
	}
	return out
}
