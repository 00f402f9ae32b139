package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV assembles a minimal RIFF container around pcm.
func buildWAV(t *testing.T, sampleRate int, channels, bits uint16, pcm []byte) []byte {
	t.Helper()
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	byteRate := uint32(sampleRate) * uint32(channels) * uint32(bits) / 8
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

func collectFrames(t *testing.T, src Source) [][]byte {
	t.Helper()
	var frames [][]byte
	timeout := time.After(5 * time.Second)
	for {
		select {
		case frame, ok := <-src.Frames():
			if !ok {
				return frames
			}
			frames = append(frames, frame)
		case <-timeout:
			t.Fatal("timed out draining source")
		}
	}
}

func TestReaderSourceCutsFixedFrames(t *testing.T) {
	// 16000 Hz * 2 bytes * 100ms = 3200 bytes per frame.
	pcm := make([]byte, 3200*2+100)
	src := NewReaderSource(io.NopCloser(bytes.NewReader(pcm)), Options{})

	frames := collectFrames(t, src)
	require.Len(t, frames, 3)
	assert.Len(t, frames[0], 3200)
	assert.Len(t, frames[1], 3200)
	assert.Len(t, frames[2], 100, "trailing partial frame is delivered")
}

func TestReaderSourceEmptyInput(t *testing.T) {
	src := NewReaderSource(io.NopCloser(bytes.NewReader(nil)), Options{})
	assert.Empty(t, collectFrames(t, src))
}

func TestCloseReleasesUnderlyingReader(t *testing.T) {
	pr, pw := io.Pipe()
	src := NewReaderSource(pr, Options{})

	require.NoError(t, src.Close())
	require.NoError(t, src.Close(), "double close is safe")

	// The pump's pending read fails once the pipe is closed.
	_, err := pw.Write(make([]byte, 10))
	assert.Error(t, err)

	select {
	case _, ok := <-src.Frames():
		assert.False(t, ok, "frames channel closes after Close")
	case <-time.After(5 * time.Second):
		t.Fatal("frames channel never closed")
	}
}

func TestOpenWAV(t *testing.T) {
	pcm := make([]byte, 6400)
	path := filepath.Join(t.TempDir(), "sample.wav")
	require.NoError(t, os.WriteFile(path, buildWAV(t, 8000, 1, 16, pcm), 0o644))

	src, err := Open(path, Options{FrameDuration: 100 * time.Millisecond})
	require.NoError(t, err)
	defer src.Close()

	// 8000 Hz * 2 bytes * 100ms = 1600 bytes per frame, so 4 frames.
	frames := collectFrames(t, src)
	require.Len(t, frames, 4)
	assert.Len(t, frames[0], 1600)
}

func TestOpenWAVRejectsStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	require.NoError(t, os.WriteFile(path, buildWAV(t, 16000, 2, 16, make([]byte, 64)), 0o644))

	_, err := Open(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mono")
}

func TestOpenRawTreatsFileAsPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcm")
	require.NoError(t, os.WriteFile(path, make([]byte, 3200), 0o644))

	src, err := Open(path, Options{})
	require.NoError(t, err)
	defer src.Close()

	frames := collectFrames(t, src)
	require.Len(t, frames, 1)
	assert.Len(t, frames[0], 3200)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.wav"), Options{})
	assert.Error(t, err)
}

func TestWAVHeaderSkipsAncillaryChunks(t *testing.T) {
	base := buildWAV(t, 16000, 1, 16, []byte{0, 0})

	// Splice a LIST chunk between "WAVE" and "fmt ".
	var buf bytes.Buffer
	buf.Write(base[:12])
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("INFO")
	buf.Write(base[12:])

	rate, err := readWAVHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
}
