package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/pcm"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/portaudio"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

// Option configures a Capture or Speaker.
type Option func(*options)

type options struct {
	format pcm.Format
	frame  time.Duration
	device int
	logger *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{
		format: pcm.L16Mono48K,
		frame:  20 * time.Millisecond,
		device: portaudio.DefaultDevice,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithFormat sets the PCM format. Speakers always play 48kHz mono.
func WithFormat(f pcm.Format) Option {
	return func(o *options) { o.format = f }
}

// WithFrameDuration sets the device buffer length.
func WithFrameDuration(d time.Duration) Option {
	return func(o *options) { o.frame = d }
}

// WithDevice selects a PortAudio device index.
func WithDevice(index int) Option {
	return func(o *options) { o.device = index }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Capture opens the PortAudio input device. portaudio.Initialize must have
// been called.
type Capture struct {
	opts options
}

// NewCapture creates a Capture.
func NewCapture(opts ...Option) *Capture {
	return &Capture{opts: newOptions(opts)}
}

// Open starts capturing. Denied or missing devices fail here.
func (c *Capture) Open(ctx context.Context) (voice.Microphone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := portaudio.NewInputStream(c.opts.format, c.opts.frame, portaudio.WithDevice(c.opts.device))
	if err != nil {
		return nil, fmt.Errorf("device: open microphone: %w", err)
	}
	c.opts.logger.Info("device: microphone open", "format", c.opts.format.String())
	return newMicrophone(in), nil
}

var _ voice.MicrophoneSource = (*Capture)(nil)

type inputStream interface {
	Read(buf []int16) (int, error)
	FrameSamples() int
	Format() pcm.Format
	Close() error
}

// Microphone is an open capture stream. While disabled it keeps reading
// the device and yields silence.
type Microphone struct {
	in      inputStream
	enabled atomic.Bool

	mu      sync.Mutex
	scratch []int16
	pending []int16

	stopOnce sync.Once
	stopErr  error
}

func newMicrophone(in inputStream) *Microphone {
	m := &Microphone{in: in}
	m.enabled.Store(true)
	return m
}

// Read returns the next captured samples. Buffers shorter than a device
// frame get the remainder on the following calls.
func (m *Microphone) Read(buf []int16) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		if m.scratch == nil {
			m.scratch = make([]int16, m.in.FrameSamples())
		}
		n, err := m.in.Read(m.scratch)
		if err != nil {
			return 0, err
		}
		m.pending = m.scratch[:n]
	}
	n := copy(buf, m.pending)
	m.pending = m.pending[n:]
	if !m.enabled.Load() {
		pcm.Silence(buf[:n])
	}
	return n, nil
}

func (m *Microphone) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

func (m *Microphone) Enabled() bool {
	return m.enabled.Load()
}

func (m *Microphone) Format() pcm.Format {
	return m.in.Format()
}

// Stop closes the device. Pending and later reads return io.EOF.
func (m *Microphone) Stop() error {
	m.stopOnce.Do(func() {
		m.stopErr = m.in.Close()
	})
	return m.stopErr
}

var _ voice.Microphone = (*Microphone)(nil)
