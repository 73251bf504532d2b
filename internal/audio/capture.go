package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Stream is the capture surface the recognizer engine consumes.
type Stream interface {
	Chunks() <-chan []byte
	BytesCaptured() int64
	RawPCM() []byte
	Stop() error
}

// Capture records one source and hands out fixed 20ms frames. The final
// partial frame is delivered on Stop.
type Capture struct {
	device Device

	client *pulse.Client
	record *pulse.RecordStream

	frames chan []byte
	halt   chan struct{}

	mu     sync.Mutex
	split  framer
	raw    bytes.Buffer
	halted bool
	busy   sync.WaitGroup

	total atomic.Int64
}

var _ Stream = (*Capture)(nil)

func newCapture(device Device) *Capture {
	return &Capture{
		device: device,
		frames: make(chan []byte, 128),
		halt:   make(chan struct{}),
		split:  framer{size: frameBytes},
	}
}

// StartStream starts a capture behind the Stream interface.
func StartStream(ctx context.Context, selected Device) (Stream, error) {
	capture, err := StartCapture(ctx, selected)
	if err != nil {
		return nil, err
	}
	return capture, nil
}

// StartCapture opens a 16kHz mono s16 record stream on selected. Cancelling
// ctx stops it.
func StartCapture(ctx context.Context, selected Device) (*Capture, error) {
	client, err := dial(iconMicrophone)
	if err != nil {
		return nil, err
	}
	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	c := newCapture(selected)
	c.client = client
	c.record, err = client.NewRecord(
		pulse.NewWriter(writerFunc(c.write), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(frameBytes),
		pulse.RecordMediaName("hark voice command"),
	)
	if err != nil {
		_ = c.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	c.record.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.halt:
		}
	}()
	return c, nil
}

func (c *Capture) Device() Device { return c.device }

func (c *Capture) Chunks() <-chan []byte { return c.frames }

// BytesCaptured counts PCM bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 { return c.total.Load() }

// RawPCM copies everything captured so far.
func (c *Capture) RawPCM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.raw.Bytes())
}

// Stop ends recording, delivers the partial frame if there is room, and
// closes Chunks. Later calls do nothing.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.halted {
		c.mu.Unlock()
		return nil
	}
	c.halted = true
	close(c.halt)
	c.mu.Unlock()

	if c.record != nil {
		c.record.Stop()
		c.record.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	c.busy.Wait()

	c.mu.Lock()
	tail := c.split.drain()
	c.mu.Unlock()
	if len(tail) > 0 {
		select {
		case c.frames <- tail:
		default:
		}
	}
	close(c.frames)
	return nil
}

// write is the Pulse record callback. Returning io.EOF ends the stream.
func (c *Capture) write(pcm []byte) (int, error) {
	if len(pcm) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.halted {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Add under mu so Stop's Wait cannot miss this writer.
	c.busy.Add(1)
	defer c.busy.Done()
	c.raw.Write(pcm)
	ready := c.split.push(pcm)
	c.mu.Unlock()

	c.total.Add(int64(len(pcm)))
	for _, frame := range ready {
		select {
		case c.frames <- frame:
		case <-c.halt:
			return 0, io.EOF
		}
	}
	return len(pcm), nil
}

// framer cuts a byte stream into size-byte frames.
type framer struct {
	size    int
	pending []byte
}

func (f *framer) push(b []byte) [][]byte {
	f.pending = append(f.pending, b...)
	var out [][]byte
	for len(f.pending) >= f.size {
		out = append(out, bytes.Clone(f.pending[:f.size]))
		f.pending = f.pending[f.size:]
	}
	return out
}

func (f *framer) drain() []byte {
	tail := bytes.Clone(f.pending)
	f.pending = nil
	return tail
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }
