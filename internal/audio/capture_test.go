package audio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramerCutsFixedFrames(t *testing.T) {
	f := framer{size: 4}
	require.Empty(t, f.push([]byte{1, 2, 3}))
	require.Equal(t, [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}}, f.push([]byte{4, 5, 6, 7, 8, 9}))
	require.Equal(t, []byte{9}, f.drain())
	require.Empty(t, f.drain())
}

func TestCaptureWriteEmitsFramesAndStopFlushesTail(t *testing.T) {
	c := newCapture(Device{ID: "mic-1"})
	require.Equal(t, "mic-1", c.Device().ID)

	pcm := bytes.Repeat([]byte{7}, frameBytes*2+100)
	n, err := c.write(pcm)
	require.NoError(t, err)
	require.Equal(t, len(pcm), n)
	require.Equal(t, int64(len(pcm)), c.BytesCaptured())
	require.Equal(t, pcm, c.RawPCM())

	require.Len(t, <-c.Chunks(), frameBytes)
	require.Len(t, <-c.Chunks(), frameBytes)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	tail, ok := <-c.Chunks()
	require.True(t, ok)
	require.Len(t, tail, 100)
	_, ok = <-c.Chunks()
	require.False(t, ok)
}

func TestCaptureWriteAfterStopEndsRecording(t *testing.T) {
	c := newCapture(Device{})
	require.NoError(t, c.Stop())

	n, err := c.write([]byte{1, 2})
	require.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)
	require.Zero(t, c.BytesCaptured())

	n, err = c.write(nil)
	require.Zero(t, n)
	require.NoError(t, err)
}
