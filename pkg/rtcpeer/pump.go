package rtcpeer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v3/pkg/media"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/opus"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

type sampleWriter interface {
	WriteSample(s media.Sample) error
}

// micPump encodes fixed-length microphone frames onto a sample track.
type micPump struct {
	mic    voice.Microphone
	out    sampleWriter
	enc    *opus.Encoder
	frame  time.Duration
	size   int
	logger *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newMicPump(mic voice.Microphone, out sampleWriter, frame time.Duration, logger *slog.Logger) (*micPump, error) {
	format := mic.Format()
	enc, err := opus.NewVoIPEncoder(format.SampleRate(), format.Channels())
	if err != nil {
		return nil, fmt.Errorf("rtcpeer: microphone encoder: %w", err)
	}
	return &micPump{
		mic:    mic,
		out:    out,
		enc:    enc,
		frame:  frame,
		size:   format.SamplesInDuration(frame) * format.Channels(),
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

func (mp *micPump) stop() {
	mp.stopOnce.Do(func() { close(mp.stopCh) })
}

func (mp *micPump) stopped() bool {
	select {
	case <-mp.stopCh:
		return true
	default:
		return false
	}
}

func (mp *micPump) run() {
	defer close(mp.done)
	defer mp.enc.Close()

	channels := mp.mic.Format().Channels()
	frame := make([]int16, mp.size)
	buf := make([]int16, mp.size)
	filled, sent := 0, 0
	defer func() {
		mp.logger.Debug("rtcpeer: microphone pump stopped", "frames", sent)
	}()

	for {
		n, err := mp.mic.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				mp.logger.Warn("rtcpeer: microphone read", "error", err)
			}
			return
		}
		chunk := buf[:n]
		for len(chunk) > 0 {
			c := copy(frame[filled:], chunk)
			filled += c
			chunk = chunk[c:]
			if filled < len(frame) {
				break
			}
			filled = 0

			if mp.stopped() {
				return
			}
			pkt, err := mp.enc.Encode(frame, len(frame)/channels)
			if err != nil {
				mp.logger.Warn("rtcpeer: encode", "error", err)
				continue
			}
			if err := mp.out.WriteSample(media.Sample{Data: pkt, Duration: mp.frame}); err != nil {
				if errors.Is(err, io.ErrClosedPipe) {
					return
				}
				mp.logger.Debug("rtcpeer: write sample", "error", err)
			}
			sent++
		}
	}
}
