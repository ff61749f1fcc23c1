package portaudio

import (
	"io"
	"sync"
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/pcm"
)

// StreamOption configures an input or output stream.
type StreamOption func(*streamConfig)

type streamConfig struct {
	device int
}

// WithDevice selects a device by its index in Devices(). The default is
// the host's default device.
func WithDevice(index int) StreamOption {
	return func(c *streamConfig) {
		c.device = index
	}
}

func newStreamConfig(opts []StreamOption) streamConfig {
	c := streamConfig{device: DefaultDevice}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// InputStream captures audio from an input device.
type InputStream struct {
	stream *Stream
	format pcm.Format
	frames int
	mu     sync.Mutex
	closed bool
}

// NewInputStream creates a new input stream for recording.
// format: PCM format (e.g., pcm.L16Mono48K)
// bufferDuration: duration of each read buffer (e.g., 20ms)
func NewInputStream(format pcm.Format, bufferDuration time.Duration, opts ...StreamOption) (*InputStream, error) {
	cfg := newStreamConfig(opts)
	framesPerBuffer := format.SamplesInDuration(bufferDuration)

	stream, err := openStream(
		streamParams{device: cfg.device, channels: format.Channels()},
		streamParams{},
		float64(format.SampleRate()), framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &InputStream{
		stream: stream,
		format: format,
		frames: framesPerBuffer,
	}, nil
}

// FrameSamples returns the number of samples returned by each Read.
func (is *InputStream) FrameSamples() int {
	return is.frames * is.format.Channels()
}

// Read blocks until one buffer of samples has been captured and copies it
// into buf. It returns the number of samples copied, or io.EOF after Close.
func (is *InputStream) Read(buf []int16) (int, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return 0, io.EOF
	}
	if len(buf) < is.FrameSamples() {
		return 0, io.ErrShortBuffer
	}

	frame := buf[:is.FrameSamples()]
	if err := is.stream.Read(frame); err != nil {
		return 0, err
	}
	return len(frame), nil
}

// Format returns the PCM format.
func (is *InputStream) Format() pcm.Format {
	return is.format
}

// Close stops and closes the stream.
func (is *InputStream) Close() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return nil
	}
	is.closed = true

	return is.stream.Close()
}

// OutputStream plays audio to an output device.
type OutputStream struct {
	stream *Stream
	format pcm.Format
	frames int
	buffer []int16
	mu     sync.Mutex
	closed bool
}

// NewOutputStream creates a new output stream for playback.
// format: PCM format (e.g., pcm.L16Mono48K)
// bufferDuration: duration of each write buffer (e.g., 20ms)
func NewOutputStream(format pcm.Format, bufferDuration time.Duration, opts ...StreamOption) (*OutputStream, error) {
	cfg := newStreamConfig(opts)
	framesPerBuffer := format.SamplesInDuration(bufferDuration)

	stream, err := openStream(
		streamParams{},
		streamParams{device: cfg.device, channels: format.Channels()},
		float64(format.SampleRate()), framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &OutputStream{
		stream: stream,
		format: format,
		frames: framesPerBuffer,
		buffer: make([]int16, framesPerBuffer*format.Channels()),
	}, nil
}

// Write plays samples, splitting them into device buffers and padding the
// last one with silence. It returns the number of samples consumed.
func (os *OutputStream) Write(samples []int16) (int, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return 0, ErrStreamClosed
	}

	written := 0
	for written < len(samples) {
		n := copy(os.buffer, samples[written:])
		pcm.Silence(os.buffer[n:])
		if err := os.stream.Write(os.buffer); err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// Format returns the PCM format.
func (os *OutputStream) Format() pcm.Format {
	return os.format
}

// Close stops and closes the stream.
func (os *OutputStream) Close() error {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return nil
	}
	os.closed = true

	return os.stream.Close()
}
