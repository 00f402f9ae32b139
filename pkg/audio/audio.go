// Package audio supplies the outbound PCM feed for a live meeting. The
// transcription service consumes raw 16-bit mono PCM in binary WebSocket
// frames; sources here cut a WAV or raw capture into fixed-duration
// frames and, for file playback, pace them at recording speed.
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/facilita/facil-cli/pkg/logging"
)

// Defaults for the outbound feed.
const (
	DefaultSampleRate    = 16000
	DefaultFrameDuration = 100 * time.Millisecond

	bytesPerSample = 2 // 16-bit mono
)

// Source produces PCM frames for the stream client.
type Source interface {
	// Frames returns the channel of PCM frames. It is closed when the
	// source is exhausted or closed.
	Frames() <-chan []byte

	// Close releases the source. It is safe to call more than once and
	// always releases the underlying input.
	Close() error
}

// Options configures a reader-backed source.
type Options struct {
	// SampleRate of the PCM input in Hz. Defaults to DefaultSampleRate.
	SampleRate int

	// FrameDuration is the audio span of one frame. Defaults to
	// DefaultFrameDuration.
	FrameDuration time.Duration

	// Realtime paces frames at recording speed. Live captures arrive
	// paced already; file playback needs this on so the transcription
	// service sees a realistic feed.
	Realtime bool

	Logger logging.Logger
}

func (o *Options) withDefaults() {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.FrameDuration <= 0 {
		o.FrameDuration = DefaultFrameDuration
	}
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
}

// readerSource cuts an io.ReadCloser of raw PCM into frames.
type readerSource struct {
	rc     io.ReadCloser
	frames chan []byte
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error

	opts Options
}

// NewReaderSource streams raw PCM frames from rc. The source owns rc and
// closes it when done.
func NewReaderSource(rc io.ReadCloser, opts Options) Source {
	opts.withDefaults()

	s := &readerSource{
		rc:     rc,
		frames: make(chan []byte, 4),
		done:   make(chan struct{}),
		opts:   opts,
	}
	go s.pump()
	return s
}

// NewStdinSource streams raw PCM piped to stdin, e.g. from a system
// audio capture tool.
func NewStdinSource(opts Options) Source {
	return NewReaderSource(io.NopCloser(os.Stdin), opts)
}

// Open creates a source from an audio file. WAV containers are unwrapped
// to their PCM payload; any other extension is treated as raw PCM.
// Playback is paced at recording speed.
func Open(path string, opts Options) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}

	opts.Realtime = true

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		rate, err := readWAVHeader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		opts.SampleRate = rate
	}

	return NewReaderSource(f, opts), nil
}

func (s *readerSource) Frames() <-chan []byte {
	return s.frames
}

func (s *readerSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.rc.Close()
	})
	return s.closeErr
}

// frameSize returns the byte length of one frame.
func (s *readerSource) frameSize() int {
	n := s.opts.SampleRate * bytesPerSample * int(s.opts.FrameDuration) / int(time.Second)
	if n < bytesPerSample {
		n = bytesPerSample
	}
	if n%bytesPerSample != 0 {
		n -= n % bytesPerSample
	}
	return n
}

// pump reads frames until EOF or Close. The frames channel is always
// closed on exit so consumers never block on a dead source.
func (s *readerSource) pump() {
	defer close(s.frames)

	var ticker *time.Ticker
	if s.opts.Realtime {
		ticker = time.NewTicker(s.opts.FrameDuration)
		defer ticker.Stop()
	}

	size := s.frameSize()
	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(s.rc, buf)
		if n > 0 {
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-s.done:
					return
				}
			}
			select {
			case s.frames <- buf[:n]:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				select {
				case <-s.done:
				default:
					s.opts.Logger.Warn("audio source read failed", logging.Err(err))
				}
			}
			return
		}
	}
}
