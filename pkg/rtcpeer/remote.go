package rtcpeer

import (
	"log/slog"
	"sync"

	"github.com/pion/rtp"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/opus"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/pcm"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

const (
	// RemoteFormat is the PCM format remote streams decode to.
	RemoteFormat = pcm.L16Mono48K

	// maxConcealed bounds how many lost packets are concealed per gap.
	maxConcealed = 3
	plcSamples   = 960
)

type packetReader func() (*rtp.Packet, error)

// remoteStream decodes an Opus RTP track and fans the samples out to its
// taps. Tapped functions must not retain the slice.
type remoteStream struct {
	read   packetReader
	dec    *opus.Decoder
	logger *slog.Logger
	done   chan struct{}

	mu     sync.Mutex
	taps   map[uint64]func([]int16)
	nextID uint64

	started bool
	lastSeq uint16
}

func newRemoteStream(read packetReader, logger *slog.Logger) (*remoteStream, error) {
	dec, err := opus.NewDecoder(RemoteFormat.SampleRate(), RemoteFormat.Channels())
	if err != nil {
		return nil, err
	}
	return &remoteStream{
		read:   read,
		dec:    dec,
		logger: logger,
		done:   make(chan struct{}),
		taps:   make(map[uint64]func([]int16)),
	}, nil
}

func (s *remoteStream) Tap(fn func([]int16)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.taps[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.taps, id)
		s.mu.Unlock()
	}
}

func (s *remoteStream) Done() <-chan struct{} {
	return s.done
}

func (s *remoteStream) Format() pcm.Format {
	return RemoteFormat
}

func (s *remoteStream) run() {
	defer close(s.done)
	defer s.dec.Close()

	buf := make([]int16, opus.MaxFrameSamples)
	packets := 0
	for {
		pkt, err := s.read()
		if err != nil {
			s.logger.Debug("rtcpeer: remote track ended", "packets", packets, "error", err)
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		packets++
		s.conceal(pkt.SequenceNumber, buf)

		n, err := s.dec.DecodeTo(pkt.Payload, buf)
		if err != nil {
			s.logger.Warn("rtcpeer: decode", "error", err)
			continue
		}
		s.emit(buf[:n])
	}
}

// conceal fills short sequence gaps with decoder loss concealment.
// Reordered packets show up as huge gaps and are ignored.
func (s *remoteStream) conceal(seq uint16, buf []int16) {
	if s.started {
		if gap := seq - s.lastSeq - 1; gap > 0 && gap <= maxConcealed {
			for range gap {
				n, err := s.dec.DecodeTo(nil, buf[:plcSamples])
				if err != nil {
					break
				}
				s.emit(buf[:n])
			}
		}
	}
	s.started = true
	s.lastSeq = seq
}

func (s *remoteStream) emit(samples []int16) {
	s.mu.Lock()
	fns := make([]func([]int16), 0, len(s.taps))
	for _, fn := range s.taps {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(samples)
	}
}

var _ voice.RemoteStream = (*remoteStream)(nil)
