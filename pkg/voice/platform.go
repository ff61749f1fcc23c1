package voice

import (
	"context"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/pcm"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audiolevel"
)

// SignalingHaveLocalOffer is the signaling state in which a remote answer
// may be applied.
const SignalingHaveLocalOffer = "have-local-offer"

// CredentialSource obtains a short-lived token for one session.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Negotiator exchanges a local SDP offer for the remote answer.
type Negotiator interface {
	Negotiate(ctx context.Context, token, offer string) (answer string, err error)
}

// NegotiatorFunc adapts a function to Negotiator.
type NegotiatorFunc func(ctx context.Context, token, offer string) (string, error)

func (f NegotiatorFunc) Negotiate(ctx context.Context, token, offer string) (string, error) {
	return f(ctx, token, offer)
}

// PeerFactory creates peer connections.
type PeerFactory interface {
	NewPeer(ctx context.Context) (Peer, error)
}

// Peer is one peer connection to the model.
type Peer interface {
	// OnTrack registers the handler for remote audio.
	OnTrack(fn func(RemoteStream))
	// OnClosed registers the handler for transport loss. It is not called
	// for a Close initiated locally.
	OnClosed(fn func(err error))
	// AddMicrophone sends mic as the local audio track.
	AddMicrophone(mic Microphone) error
	// CreateEventChannel opens a reliable ordered data channel.
	CreateEventChannel(label string) (EventChannel, error)
	CreateOffer(ctx context.Context) (string, error)
	// SetLocalDescription applies offer and waits for candidate gathering.
	SetLocalDescription(ctx context.Context, offer string) error
	// LocalDescription returns the local SDP including gathered candidates.
	LocalDescription() string
	SignalingState() string
	SetRemoteDescription(answer string) error
	Close() error
}

// EventChannel is the out-of-band JSON event channel.
type EventChannel interface {
	Send(data []byte) error
	OnMessage(fn func(data []byte))
	OnOpen(fn func())
	OnClose(fn func())
	IsOpen() bool
	Close() error
}

// MicrophoneSource grants access to a capture device.
type MicrophoneSource interface {
	Open(ctx context.Context) (Microphone, error)
}

// MicController is the part of a Microphone the Arbitrator drives.
type MicController interface {
	SetEnabled(enabled bool)
}

// Microphone is an open capture handle. A disabled microphone keeps its
// track alive and yields silence.
type Microphone interface {
	MicController
	// Read blocks for the next frame of samples.
	Read(buf []int16) (int, error)
	Format() pcm.Format
	Enabled() bool
	// Stop ends capture and releases the device.
	Stop() error
}

// RemoteStream is the decoded audio of the model's track.
type RemoteStream interface {
	audiolevel.Source
	Format() pcm.Format
}

// AudioSink plays a remote stream.
type AudioSink interface {
	Attach(stream RemoteStream) error
	// Source returns the attached stream, or nil.
	Source() RemoteStream
	Pause()
	Detach()
}

// LevelMonitor samples a remote stream's energy once per frame.
type LevelMonitor interface {
	Attach(src audiolevel.Source, alive func() bool, report func(audiolevel.Report)) *audiolevel.Probe
}

var _ LevelMonitor = (*audiolevel.Monitor)(nil)
