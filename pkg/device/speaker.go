package device

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/pcm"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/portaudio"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

// queueBlocks bounds buffered playback to roughly one second of 20ms
// blocks. Blocks beyond it are dropped.
const queueBlocks = 50

var errFormat = errors.New("device: stream format does not match speaker")

type outputStream interface {
	Write(samples []int16) (int, error)
	Format() pcm.Format
	Close() error
}

// Speaker plays one attached remote stream at a time.
type Speaker struct {
	out    outputStream
	logger *slog.Logger
	queue  chan []int16
	stop   chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	src    voice.RemoteStream
	untap  func()
	paused bool
	closed bool
}

// NewSpeaker opens the PortAudio output device at 48kHz mono.
// portaudio.Initialize must have been called.
func NewSpeaker(opts ...Option) (*Speaker, error) {
	o := newOptions(opts)
	out, err := portaudio.NewOutputStream(pcm.L16Mono48K, o.frame, portaudio.WithDevice(o.device))
	if err != nil {
		return nil, fmt.Errorf("device: open speaker: %w", err)
	}
	return newSpeaker(out, o.logger), nil
}

func newSpeaker(out outputStream, logger *slog.Logger) *Speaker {
	s := &Speaker{
		out:    out,
		logger: logger,
		queue:  make(chan []int16, queueBlocks),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.play()
	return s
}

func (s *Speaker) play() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case block := <-s.queue:
			if _, err := s.out.Write(block); err != nil {
				s.logger.Warn("device: speaker write", "error", err)
			}
		}
	}
}

// Attach plays stream, replacing any attached stream.
func (s *Speaker) Attach(stream voice.RemoteStream) error {
	if stream.Format() != s.out.Format() {
		return fmt.Errorf("%w: %s", errFormat, stream.Format())
	}
	s.Detach()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return portaudio.ErrStreamClosed
	}
	s.src = stream
	s.paused = false
	s.untap = stream.Tap(s.enqueue)
	return nil
}

func (s *Speaker) enqueue(samples []int16) {
	s.mu.Lock()
	paused := s.paused || s.closed
	s.mu.Unlock()
	if paused {
		return
	}
	block := make([]int16, len(samples))
	copy(block, samples)
	select {
	case s.queue <- block:
	default:
		s.logger.Debug("device: speaker queue full, dropping block")
	}
}

func (s *Speaker) Source() voice.RemoteStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// Pause stops playback and discards queued audio.
func (s *Speaker) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.drain()
}

// Detach releases the attached stream.
func (s *Speaker) Detach() {
	s.mu.Lock()
	untap := s.untap
	s.untap = nil
	s.src = nil
	s.mu.Unlock()
	if untap != nil {
		untap()
	}
}

func (s *Speaker) drain() {
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

// Close detaches, stops playback and closes the device.
func (s *Speaker) Close() error {
	s.Detach()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return s.out.Close()
}

var _ voice.AudioSink = (*Speaker)(nil)
