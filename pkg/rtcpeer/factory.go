package rtcpeer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

// DefaultFrameDuration is the microphone packetization interval.
const DefaultFrameDuration = 20 * time.Millisecond

// Option configures a Factory.
type Option func(*Factory)

// WithICEServers sets the STUN/TURN URLs. With none, only host candidates
// are gathered.
func WithICEServers(urls ...string) Option {
	return func(f *Factory) {
		f.iceServers = urls
	}
}

// WithFrameDuration sets the microphone packetization interval.
func WithFrameDuration(d time.Duration) Option {
	return func(f *Factory) {
		f.frame = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = l
	}
}

// Factory creates pion peer connections.
type Factory struct {
	iceServers []string
	frame      time.Duration
	logger     *slog.Logger
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		frame:  DefaultFrameDuration,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewPeer creates a peer connection.
func (f *Factory) NewPeer(ctx context.Context) (voice.Peer, error) {
	return f.newPeer()
}

func (f *Factory) newPeer() (*Peer, error) {
	var cfg webrtc.Configuration
	if len(f.iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: f.iceServers}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("rtcpeer: create peer connection: %w", err)
	}
	return newPeer(pc, f.frame, f.logger), nil
}

var _ voice.PeerFactory = (*Factory)(nil)
