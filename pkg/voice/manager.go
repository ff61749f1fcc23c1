package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audiolevel"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/observability"
	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
)

// Dependencies are the collaborators a Manager drives. Monitor may be nil,
// in which case an audiolevel.Monitor with default settings is used.
type Dependencies struct {
	Credentials CredentialSource
	Negotiator  Negotiator
	Peers       PeerFactory
	Microphones MicrophoneSource
	Sink        AudioSink
	Presenter   Presenter
	Monitor     LevelMonitor
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithMetrics records session metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// Handles is a snapshot of an established session's resources. It is
// either fully populated or the zero value.
type Handles struct {
	Peer         Peer
	EventChannel EventChannel
	Microphone   Microphone
	Sink         AudioSink
}

// Established reports whether h refers to a session.
func (h Handles) Established() bool {
	return h.Peer != nil
}

// session holds the resources one Start allocated. Fields are guarded by
// Manager.mu.
type session struct {
	epoch       uint64
	gen         uint64
	startedAt   time.Time
	peer        Peer
	channel     EventChannel
	mic         Microphone
	stream      RemoteStream
	probes      []*audiolevel.Probe
	established bool
	updateOnce  sync.Once
}

// Manager owns the lifecycle of the single voice session.
type Manager struct {
	deps      Dependencies
	cfg       Config
	clock     Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
	presenter Presenter
	arb       *Arbitrator

	mu          sync.Mutex
	active      bool
	epoch       uint64
	sess        *session
	cancelStart context.CancelFunc
	// pending belongs to the Start in flight and is closed when it returns.
	pending chan struct{}
}

// NewManager creates a Manager. Credentials, Negotiator, Peers,
// Microphones and Sink are required.
func NewManager(deps Dependencies, opts ...Option) *Manager {
	m := &Manager{
		deps:   deps,
		cfg:    DefaultConfig(),
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.presenter = deps.Presenter
	if m.presenter == nil {
		m.presenter = nopPresenter{}
	}
	if m.deps.Monitor == nil {
		m.deps.Monitor = audiolevel.NewMonitor(audiolevel.WithLogger(m.logger))
	}
	m.arb = NewArbitrator(m.cfg, m.clock, m.presenter).
		withMetrics(m.metrics).
		withLogger(m.logger)
	return m
}

// Arbitrator returns the manager's turn arbitrator.
func (m *Manager) Arbitrator() *Arbitrator {
	return m.arb
}

// Active reports whether a session is starting or running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Handles returns the established session's resources, or the zero value
// while no session is established.
func (m *Manager) Handles() Handles {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sess
	if s == nil || !s.established {
		return Handles{}
	}
	return Handles{
		Peer:         s.peer,
		EventChannel: s.channel,
		Microphone:   s.mic,
		Sink:         m.deps.Sink,
	}
}

// SpeakingState returns the arbitrator's state.
func (m *Manager) SpeakingState() SpeakingState {
	return m.arb.State()
}

// Toggle starts or stops the session, as a UI switch does.
func (m *Manager) Toggle(ctx context.Context, on bool) error {
	if on {
		return m.Start(ctx)
	}
	m.Stop()
	return nil
}

// Start establishes a new session, tearing down any existing one first.
// ctx bounds establishment only; the session outlives it.
//
// It returns nil once connected, a *Error when a step fails (the session
// is already torn down and the presenter shows the failure), or an error
// wrapping ErrAborted when Stop or another Start superseded it.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.active = true
	m.epoch++
	epoch := m.epoch
	old := m.sess
	m.sess = nil
	if m.cancelStart != nil {
		m.cancelStart()
	}
	sctx, cancel := context.WithCancel(ctx)
	m.cancelStart = cancel
	prev := m.pending
	done := make(chan struct{})
	m.pending = done
	m.mu.Unlock()
	defer m.finishStart(done)
	defer m.clearCancel(epoch, cancel)

	m.metrics.SessionStarted()
	s := &session{
		epoch:     epoch,
		gen:       m.arb.Reset(),
		startedAt: m.clock.Now(),
	}
	m.presenter.OnStatus(StatusConnecting)

	if old != nil || prev != nil {
		if old != nil {
			m.logger.Info("voice: restarting session")
			m.teardown(old)
		}
		// A superseded attempt may be blocked in a call that ignores ctx.
		// Its resources are released before it returns.
		if prev != nil {
			<-prev
		}
		select {
		case <-m.clock.After(m.cfg.RestartSettle):
		case <-sctx.Done():
		}
		if !m.current(epoch) {
			return m.abort(s, "settle")
		}
	}

	token, err := m.deps.Credentials.Token(sctx)
	if !m.current(epoch) {
		return m.abort(s, "credential")
	}
	if err != nil {
		return m.fail(s, KindCredential, "get session token", err)
	}

	peer, err := m.deps.Peers.NewPeer(sctx)
	if peer != nil {
		m.mu.Lock()
		s.peer = peer
		m.mu.Unlock()
	}
	if !m.current(epoch) {
		return m.abort(s, "peer")
	}
	if err != nil {
		return m.fail(s, KindNegotiation, "create peer", err)
	}
	peer.OnTrack(func(rs RemoteStream) { m.handleTrack(s, rs) })
	peer.OnClosed(func(err error) { m.handleClosed(s, err) })

	mic, err := m.deps.Microphones.Open(sctx)
	if mic != nil {
		m.mu.Lock()
		s.mic = mic
		m.mu.Unlock()
	}
	if !m.current(epoch) {
		return m.abort(s, "microphone")
	}
	if err != nil {
		return m.fail(s, KindCapture, "open microphone", err)
	}

	if err := peer.AddMicrophone(mic); err != nil {
		return m.fail(s, KindNegotiation, "add microphone track", err)
	}
	m.arb.Bind(s.gen, mic)
	channel, err := peer.CreateEventChannel(m.cfg.EventChannelLabel)
	if err != nil {
		return m.fail(s, KindNegotiation, "create event channel", err)
	}
	m.mu.Lock()
	s.channel = channel
	m.mu.Unlock()
	channel.OnMessage(func(data []byte) { m.handleMessage(s, data) })
	channel.OnOpen(func() { m.handleOpen(s) })
	channel.OnClose(func() { m.handleClosed(s, errEventChannelClosed) })

	offer, err := peer.CreateOffer(sctx)
	if !m.current(epoch) {
		return m.abort(s, "offer")
	}
	if err != nil {
		return m.fail(s, KindNegotiation, "create offer", err)
	}
	err = peer.SetLocalDescription(sctx, offer)
	if !m.current(epoch) {
		return m.abort(s, "local description")
	}
	if err != nil {
		return m.fail(s, KindNegotiation, "set local description", err)
	}

	answer, err := m.deps.Negotiator.Negotiate(sctx, token, peer.LocalDescription())
	if !m.current(epoch) {
		return m.abort(s, "negotiate")
	}
	if err != nil {
		return m.fail(s, KindNegotiation, "exchange offer", err)
	}
	if state := peer.SignalingState(); state != SignalingHaveLocalOffer {
		return m.fail(s, KindNegotiation, "apply answer",
			fmt.Errorf("%w: %s", errSignalingState, state))
	}
	if err := peer.SetRemoteDescription(answer); err != nil {
		return m.fail(s, KindNegotiation, "set remote description", err)
	}

	m.mu.Lock()
	if !m.currentLocked(epoch) {
		m.mu.Unlock()
		return m.abort(s, "establish")
	}
	s.established = true
	m.sess = s
	m.mu.Unlock()

	m.metrics.SessionEstablished(m.clock.Now().Sub(s.startedAt))
	m.logger.Info("voice: session established", "epoch", epoch)
	m.presenter.OnStatus(StatusConnected)

	if channel.IsOpen() {
		m.sendSessionUpdate(s)
	}
	return nil
}

// Stop ends the session. It is idempotent; with nothing to stop it makes
// no presenter calls.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.active && m.sess == nil {
		m.mu.Unlock()
		return
	}
	m.active = false
	m.epoch++
	s := m.sess
	m.sess = nil
	if m.cancelStart != nil {
		m.cancelStart()
		m.cancelStart = nil
	}
	m.mu.Unlock()

	if s != nil {
		m.teardown(s)
	}
	m.arb.Reset()
	m.presenter.OnStatus(StatusIdle)
	m.logger.Info("voice: session stopped")
}

// Close stops the session and waits for an in-flight Start to release
// what it allocated.
func (m *Manager) Close() {
	m.Stop()
	m.mu.Lock()
	pending := m.pending
	m.mu.Unlock()
	if pending != nil {
		<-pending
	}
}

func (m *Manager) finishStart(done chan struct{}) {
	m.mu.Lock()
	if m.pending == done {
		m.pending = nil
	}
	m.mu.Unlock()
	close(done)
}

func (m *Manager) clearCancel(epoch uint64, cancel context.CancelFunc) {
	m.mu.Lock()
	if m.epoch == epoch {
		m.cancelStart = nil
	}
	m.mu.Unlock()
	cancel()
}

func (m *Manager) current(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked(epoch)
}

func (m *Manager) currentLocked(epoch uint64) bool {
	return m.active && m.epoch == epoch
}

// abort releases what a superseded Start allocated.
func (m *Manager) abort(s *session, step string) error {
	m.logger.Debug("voice: start superseded", "epoch", s.epoch, "step", step)
	m.teardown(s)
	return fmt.Errorf("%w during %s", ErrAborted, step)
}

// fail tears down s and, if it is still the current attempt, ends the
// session and shows the failure.
func (m *Manager) fail(s *session, kind ErrorKind, op string, err error) error {
	verr := &Error{Kind: kind, Op: op, Err: err}

	m.mu.Lock()
	if !m.currentLocked(s.epoch) {
		m.mu.Unlock()
		return m.abort(s, op)
	}
	m.active = false
	m.epoch++
	if m.sess == s {
		m.sess = nil
	}
	m.mu.Unlock()

	m.logger.Error("voice: session failed", "kind", kind, "op", op, "error", err)
	m.metrics.SessionFailed(kind.String())
	m.teardown(s)
	m.arb.Reset()
	m.presenter.OnStatus(verr.Status())
	return verr
}

// teardown releases every resource s holds. Each step is skipped when its
// handle is absent; errors are logged.
func (m *Manager) teardown(s *session) {
	m.mu.Lock()
	channel, peer, mic, stream := s.channel, s.peer, s.mic, s.stream
	probes := s.probes
	established := s.established
	s.channel, s.peer, s.mic, s.stream, s.probes = nil, nil, nil, nil, nil
	s.established = false
	m.mu.Unlock()

	for _, p := range probes {
		p.Stop()
	}
	if channel != nil {
		if err := channel.Close(); err != nil {
			m.logger.Warn("voice: close event channel", "error", err)
		}
	}
	if peer != nil {
		if err := peer.Close(); err != nil {
			m.logger.Warn("voice: close peer", "error", err)
		}
	}
	if mic != nil {
		if err := mic.Stop(); err != nil {
			m.logger.Warn("voice: stop microphone", "error", err)
		}
	}
	if stream != nil && m.deps.Sink.Source() == stream {
		m.deps.Sink.Pause()
		m.deps.Sink.Detach()
	}
	if established {
		m.metrics.SessionEnded()
	}
}

func (m *Manager) handleTrack(s *session, rs RemoteStream) {
	if !m.current(s.epoch) {
		m.logger.Debug("voice: ignoring track for stale session", "epoch", s.epoch)
		return
	}
	if err := m.deps.Sink.Attach(rs); err != nil {
		m.logger.Warn("voice: attach remote audio", "error", err)
		return
	}

	m.mu.Lock()
	if !m.currentLocked(s.epoch) {
		m.mu.Unlock()
		if m.deps.Sink.Source() == rs {
			m.deps.Sink.Detach()
		}
		return
	}
	s.stream = rs
	m.mu.Unlock()

	m.presenter.OnStatus(StatusReady)

	levels, _ := m.presenter.(LevelPresenter)
	probe := m.deps.Monitor.Attach(rs,
		func() bool { return m.streamAlive(s, rs) },
		func(r audiolevel.Report) {
			m.arb.level(s.gen, r.Loud)
			if levels != nil {
				levels.OnLevel(r)
			}
		})

	m.mu.Lock()
	if m.currentLocked(s.epoch) && s.stream == rs {
		s.probes = append(s.probes, probe)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	probe.Stop()
}

func (m *Manager) streamAlive(s *session, rs RemoteStream) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked(s.epoch) && s.stream == rs && m.deps.Sink.Source() == rs
}

var (
	errPeerClosed         = errors.New("peer connection closed")
	errEventChannelClosed = errors.New("event channel closed")
)

func (m *Manager) handleClosed(s *session, err error) {
	if err == nil {
		err = errPeerClosed
	}
	if !m.current(s.epoch) {
		return
	}
	_ = m.fail(s, KindTransport, "transport", err)
}

func (m *Manager) handleMessage(s *session, data []byte) {
	if !m.current(s.epoch) {
		return
	}
	ev, err := openairealtime.ParseEvent(data)
	if err != nil {
		m.logger.Warn("voice: bad event channel message", "error", err)
		return
	}
	m.metrics.EventReceived(ev.Type)
	if ev.Type == openairealtime.EventTypeError && ev.Error != nil {
		m.logger.Warn("voice: server error event", "error", ev.Error.ToError())
	}
	m.arb.handle(s.gen, ClassifyEvent(ev.Type))
}

func (m *Manager) handleOpen(s *session) {
	m.mu.Lock()
	ready := m.currentLocked(s.epoch) && s.established
	m.mu.Unlock()
	if ready {
		m.sendSessionUpdate(s)
	}
}

func (m *Manager) sendSessionUpdate(s *session) {
	s.updateOnce.Do(func() {
		m.mu.Lock()
		channel := s.channel
		m.mu.Unlock()
		if channel == nil {
			return
		}
		data, err := openairealtime.EncodeEvent(openairealtime.NewSessionUpdate(m.cfg.TurnDetection))
		if err != nil {
			m.logger.Error("voice: encode session.update", "error", err)
			return
		}
		if err := channel.Send(data); err != nil {
			m.logger.Warn("voice: send session.update", "error", err)
			return
		}
		m.logger.Debug("voice: session.update sent", "epoch", s.epoch)
	})
}
