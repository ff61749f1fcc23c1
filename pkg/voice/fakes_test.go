package voice

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/pcm"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audiolevel"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/observability"
)

// manualClock fires timers only from Advance. Callbacks run without the
// clock's lock held so they may schedule further timers.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	seq     int
	fn      func()
	ch      chan time.Time
	stopped bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.add(d, f, nil)
}

// After fires immediately for d <= 0.
func (c *manualClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.Now()
		return ch
	}
	c.add(d, nil, ch)
	return ch
}

func (c *manualClock) add(d time.Duration, f func(), ch chan time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f, ch: ch}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, x := range t.clock.timers {
		if x == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			t.stopped = true
			return true
		}
	}
	return false
}

// Pending returns the number of timers not yet fired or stopped.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			if c.timers[i].at.Equal(c.timers[j].at) {
				return c.timers[i].seq < c.timers[j].seq
			}
			return c.timers[i].at.Before(c.timers[j].at)
		})
		if len(c.timers) == 0 || c.timers[0].at.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		t := c.timers[0]
		c.timers = c.timers[1:]
		c.now = t.at
		c.mu.Unlock()

		if t.fn != nil {
			t.fn()
		} else {
			t.ch <- t.at
		}
	}
}

// recorder is a Presenter that keeps every call.
type recorder struct {
	mu       sync.Mutex
	statuses []string
	ai       []bool
	user     []bool
	levels   []audiolevel.Report
}

func (r *recorder) OnStatus(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, text)
}

func (r *recorder) OnAISpeakingChanged(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ai = append(r.ai, v)
}

func (r *recorder) OnUserSpeakingChanged(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = append(r.user, v)
}

func (r *recorder) OnLevel(rep audiolevel.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, rep)
}

func (r *recorder) Statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...)
}

func (r *recorder) LastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *recorder) AI() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.ai...)
}

func (r *recorder) User() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.user...)
}

func (r *recorder) Levels() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.levels)
}

func (r *recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses) + len(r.ai) + len(r.user)
}

// fakeMic records every enable toggle.
type fakeMic struct {
	mu      sync.Mutex
	enabled bool
	history []bool
	stopped int
}

func newFakeMic() *fakeMic { return &fakeMic{enabled: true} }

func (m *fakeMic) SetEnabled(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = v
	m.history = append(m.history, v)
}

func (m *fakeMic) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *fakeMic) History() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.history...)
}

func (m *fakeMic) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped > 0
}

func (m *fakeMic) Read([]int16) (int, error) { return 0, io.EOF }
func (m *fakeMic) Format() pcm.Format        { return pcm.L16Mono48K }

func (m *fakeMic) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	return nil
}

// fakeMics hands out fresh microphones. hook runs before each Open.
type fakeMics struct {
	mu   sync.Mutex
	err  error
	mics []*fakeMic
	hook func()
}

func (s *fakeMics) Open(ctx context.Context) (Microphone, error) {
	s.mu.Lock()
	hook, err := s.hook, s.err
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	mic := newFakeMic()
	s.mu.Lock()
	s.mics = append(s.mics, mic)
	s.mu.Unlock()
	return mic, nil
}

func (s *fakeMics) All() []*fakeMic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeMic(nil), s.mics...)
}

type fakeChannel struct {
	mu        sync.Mutex
	label     string
	open      bool
	closed    bool
	sent      [][]byte
	onMessage func([]byte)
	onOpen    func()
	onClose   func()
}

func (c *fakeChannel) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return errors.New("channel not open")
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeChannel) OnMessage(fn func([]byte)) { c.mu.Lock(); c.onMessage = fn; c.mu.Unlock() }
func (c *fakeChannel) OnOpen(fn func())          { c.mu.Lock(); c.onOpen = fn; c.mu.Unlock() }
func (c *fakeChannel) OnClose(fn func())         { c.mu.Lock(); c.onClose = fn; c.mu.Unlock() }

func (c *fakeChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close fires the close handler once, as a real channel does.
func (c *fakeChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.open = false
	fn := c.onClose
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (c *fakeChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeChannel) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

// Open marks the channel open and fires the open handler.
func (c *fakeChannel) Open() {
	c.mu.Lock()
	c.open = true
	fn := c.onOpen
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *fakeChannel) Deliver(msg string) {
	c.mu.Lock()
	fn := c.onMessage
	c.mu.Unlock()
	if fn != nil {
		fn([]byte(msg))
	}
}

type fakePeer struct {
	mu          sync.Mutex
	onTrack     func(RemoteStream)
	onClosed    func(error)
	mic         Microphone
	channels    []*fakeChannel
	openChannel bool
	signaling   string
	local       string
	remote      string
	closed      bool
	offerErr    error
}

func (p *fakePeer) OnTrack(fn func(RemoteStream)) { p.mu.Lock(); p.onTrack = fn; p.mu.Unlock() }
func (p *fakePeer) OnClosed(fn func(error))       { p.mu.Lock(); p.onClosed = fn; p.mu.Unlock() }

func (p *fakePeer) AddMicrophone(mic Microphone) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mic = mic
	return nil
}

func (p *fakePeer) CreateEventChannel(label string) (EventChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := &fakeChannel{label: label, open: p.openChannel}
	p.channels = append(p.channels, ch)
	return ch, nil
}

func (p *fakePeer) CreateOffer(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.offerErr != nil {
		return "", p.offerErr
	}
	return "v=0 offer", nil
}

func (p *fakePeer) SetLocalDescription(_ context.Context, offer string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.local = offer + " candidates"
	if p.signaling == "" {
		p.signaling = SignalingHaveLocalOffer
	}
	return nil
}

func (p *fakePeer) LocalDescription() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.local
}

func (p *fakePeer) SignalingState() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signaling
}

func (p *fakePeer) SetRemoteDescription(answer string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remote = answer
	p.signaling = "stable"
	return nil
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePeer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePeer) Channels() []*fakeChannel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeChannel(nil), p.channels...)
}

// Channel returns the first event channel.
func (p *fakePeer) Channel(t *testing.T) *fakeChannel {
	t.Helper()
	chs := p.Channels()
	if len(chs) == 0 {
		t.Fatal("no event channel created")
	}
	return chs[0]
}

func (p *fakePeer) Track(rs RemoteStream) {
	p.mu.Lock()
	fn := p.onTrack
	p.mu.Unlock()
	if fn != nil {
		fn(rs)
	}
}

func (p *fakePeer) Lose(err error) {
	p.mu.Lock()
	fn := p.onClosed
	p.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// fakePeers builds fakePeers. configure and hook run for each NewPeer.
type fakePeers struct {
	mu        sync.Mutex
	err       error
	peers     []*fakePeer
	configure func(*fakePeer)
	hook      func()
}

func (f *fakePeers) NewPeer(context.Context) (Peer, error) {
	f.mu.Lock()
	hook, configure, err := f.hook, f.configure, f.err
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	p := &fakePeer{}
	if configure != nil {
		configure(p)
	}
	f.mu.Lock()
	f.peers = append(f.peers, p)
	f.mu.Unlock()
	return p, nil
}

func (f *fakePeers) All() []*fakePeer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakePeer(nil), f.peers...)
}

func (f *fakePeers) Last(t *testing.T) *fakePeer {
	t.Helper()
	all := f.All()
	if len(all) == 0 {
		t.Fatal("no peer created")
	}
	return all[len(all)-1]
}

type fakeStream struct {
	mu   sync.Mutex
	fn   func([]int16)
	done chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{done: make(chan struct{})}
}

func (s *fakeStream) Tap(fn func([]int16)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fn = nil
	}
}

func (s *fakeStream) Done() <-chan struct{} { return s.done }
func (s *fakeStream) Format() pcm.Format    { return pcm.L16Mono48K }

func (s *fakeStream) Tapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

func (s *fakeStream) Push(samples []int16) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(samples)
	}
}

type fakeSink struct {
	mu       sync.Mutex
	src      RemoteStream
	attached int
	paused   int
	detached int
}

func (s *fakeSink) Attach(rs RemoteStream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = rs
	s.attached++
	return nil
}

func (s *fakeSink) Source() RemoteStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused++
}

func (s *fakeSink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = nil
	s.detached++
}

// textErr carries user-facing text separate from its Error string.
type textErr struct{ err, text string }

func (e textErr) Error() string      { return e.err }
func (e textErr) StatusText() string { return e.text }

// fakeCreds returns token, or err. When gate is set, Token waits on it.
type fakeCreds struct {
	mu     sync.Mutex
	token  string
	err    error
	gate   chan struct{}
	calls  int
	called chan struct{}
}

func (c *fakeCreds) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	c.calls++
	gate, called := c.gate, c.called
	c.mu.Unlock()
	if called != nil {
		select {
		case called <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.token, c.err
}

func (c *fakeCreds) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeNegotiator struct {
	mu     sync.Mutex
	answer string
	err    error
	token  string
	offer  string
	block  bool
	called chan struct{}
}

func (n *fakeNegotiator) Negotiate(ctx context.Context, token, offer string) (string, error) {
	n.mu.Lock()
	n.token, n.offer = token, offer
	block, called := n.block, n.called
	n.mu.Unlock()
	if called != nil {
		select {
		case called <- struct{}{}:
		default:
		}
	}
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return n.answer, n.err
}

type manualTicker struct {
	c chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               {}

// harness wires a Manager to fakes.
type harness struct {
	mgr    *Manager
	clock  *manualClock
	rec    *recorder
	creds  *fakeCreds
	neg    *fakeNegotiator
	peers  *fakePeers
	mics   *fakeMics
	sink   *fakeSink
	ticker *manualTicker

	metrics *observability.Metrics
	// negotiate replaces neg when set.
	negotiate Negotiator
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	h := &harness{
		clock:  newManualClock(),
		rec:    &recorder{},
		creds:  &fakeCreds{token: "ek_test"},
		neg:    &fakeNegotiator{answer: "v=0 answer"},
		peers:  &fakePeers{},
		mics:   &fakeMics{},
		sink:   &fakeSink{},
		ticker: &manualTicker{c: make(chan time.Time)},

		metrics: observability.NewMetrics("test", nil),
	}
	cfg := DefaultConfig()
	cfg.RestartSettle = 0
	if mutate != nil {
		mutate(&cfg)
	}
	monitor := audiolevel.NewMonitor(audiolevel.WithTicker(func(time.Duration) audiolevel.Ticker {
		return h.ticker
	}))
	h.mgr = NewManager(Dependencies{
		Credentials: h.creds,
		Negotiator: NegotiatorFunc(func(ctx context.Context, token, offer string) (string, error) {
			if h.negotiate != nil {
				return h.negotiate.Negotiate(ctx, token, offer)
			}
			return h.neg.Negotiate(ctx, token, offer)
		}),
		Peers:       h.peers,
		Microphones: h.mics,
		Sink:        h.sink,
		Presenter:   h.rec,
		Monitor:     monitor,
	}, WithConfig(cfg), WithClock(h.clock), WithMetrics(h.metrics))
	t.Cleanup(h.mgr.Close)
	return h
}

func (h *harness) start(t *testing.T) *fakePeer {
	t.Helper()
	if err := h.mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return h.peers.Last(t)
}

// checkHandles asserts the all-or-nothing handle invariant.
func checkHandles(t *testing.T, m *Manager) Handles {
	t.Helper()
	h := m.Handles()
	set := 0
	for _, ok := range []bool{h.Peer != nil, h.EventChannel != nil, h.Microphone != nil, h.Sink != nil} {
		if ok {
			set++
		}
	}
	if set != 0 && set != 4 {
		t.Fatalf("partial handles: %+v", h)
	}
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func noise(n int, amplitude float64, seed uint64) []int16 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]int16, n)
	for i := range out {
		out[i] = int16((r.Float64()*2 - 1) * amplitude)
	}
	return out
}
