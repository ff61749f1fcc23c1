package rtcpeer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

var errMicrophoneAdded = errors.New("rtcpeer: microphone already added")

// Peer is a pion peer connection implementing voice.Peer.
type Peer struct {
	pc     *webrtc.PeerConnection
	frame  time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	onTrack  func(voice.RemoteStream)
	onClosed func(error)
	streams  []*remoteStream
	pump     *micPump

	closing  atomic.Bool
	lostOnce sync.Once
}

func newPeer(pc *webrtc.PeerConnection, frame time.Duration, logger *slog.Logger) *Peer {
	p := &Peer{
		pc:     pc,
		frame:  frame,
		logger: logger,
	}
	pc.OnTrack(p.handleTrack)
	pc.OnConnectionStateChange(p.handleState)
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		logger.Debug("rtcpeer: ICE state", "state", state.String())
	})
	return p
}

func (p *Peer) OnTrack(fn func(voice.RemoteStream)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onTrack = fn
}

func (p *Peer) OnClosed(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClosed = fn
}

func (p *Peer) handleTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	if track.Kind() != webrtc.RTPCodecTypeAudio {
		return
	}
	p.logger.Info("rtcpeer: remote track", "id", track.ID(), "codec", track.Codec().MimeType)

	rs, err := newRemoteStream(func() (*rtp.Packet, error) {
		pkt, _, err := track.ReadRTP()
		return pkt, err
	}, p.logger)
	if err != nil {
		p.logger.Error("rtcpeer: remote stream", "error", err)
		return
	}
	go rs.run()

	p.mu.Lock()
	p.streams = append(p.streams, rs)
	fn := p.onTrack
	p.mu.Unlock()

	if fn != nil && !p.closing.Load() {
		fn(rs)
	}
}

// handleState reports a failed or remotely closed connection once. A
// disconnected connection may still recover and is not reported.
func (p *Peer) handleState(state webrtc.PeerConnectionState) {
	p.logger.Debug("rtcpeer: connection state", "state", state.String())
	switch state {
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
	default:
		return
	}
	if p.closing.Load() {
		return
	}
	p.lostOnce.Do(func() {
		p.mu.Lock()
		fn := p.onClosed
		p.mu.Unlock()
		if fn != nil {
			fn(fmt.Errorf("rtcpeer: connection %s", state))
		}
	})
}

// AddMicrophone adds an Opus track fed from mic.
func (p *Peer) AddMicrophone(mic voice.Microphone) error {
	p.mu.Lock()
	added := p.pump != nil
	p.mu.Unlock()
	if added {
		return errMicrophoneAdded
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio",
		"rtvoice-mic",
	)
	if err != nil {
		return fmt.Errorf("rtcpeer: create audio track: %w", err)
	}
	sender, err := p.pc.AddTrack(track)
	if err != nil {
		return fmt.Errorf("rtcpeer: add track: %w", err)
	}
	// RTCP must be drained for the interceptors to run.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	pump, err := newMicPump(mic, track, p.frame, p.logger)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.pump = pump
	p.mu.Unlock()
	go pump.run()
	return nil
}

// CreateEventChannel creates a reliable ordered data channel.
func (p *Peer) CreateEventChannel(label string) (voice.EventChannel, error) {
	dc, err := p.pc.CreateDataChannel(label, nil)
	if err != nil {
		return nil, fmt.Errorf("rtcpeer: create data channel: %w", err)
	}
	return &dataChannel{dc: dc}, nil
}

func (p *Peer) CreateOffer(ctx context.Context) (string, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("rtcpeer: create offer: %w", err)
	}
	return offer.SDP, nil
}

// SetLocalDescription applies offer and blocks until ICE gathering is
// complete or ctx is done.
func (p *Peer) SetLocalDescription(ctx context.Context, offer string) error {
	gatherComplete := webrtc.GatheringCompletePromise(p.pc)
	err := p.pc.SetLocalDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offer,
	})
	if err != nil {
		return fmt.Errorf("rtcpeer: set local description: %w", err)
	}
	select {
	case <-gatherComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Peer) LocalDescription() string {
	if d := p.pc.LocalDescription(); d != nil {
		return d.SDP
	}
	return ""
}

func (p *Peer) SignalingState() string {
	return p.pc.SignalingState().String()
}

func (p *Peer) SetRemoteDescription(answer string) error {
	err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	})
	if err != nil {
		return fmt.Errorf("rtcpeer: set remote description: %w", err)
	}
	return nil
}

// Close closes the connection without reporting it through OnClosed.
// Remote streams end once their tracks stop. The microphone pump exits on
// its next frame; stopping the microphone ends it sooner.
func (p *Peer) Close() error {
	p.closing.Store(true)

	p.mu.Lock()
	pump := p.pump
	p.mu.Unlock()
	if pump != nil {
		pump.stop()
	}
	return p.pc.Close()
}

var _ voice.Peer = (*Peer)(nil)
