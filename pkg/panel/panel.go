package panel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audiolevel"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/buffer"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

// Message types pushed to pages.
const (
	TypeState        = "state"
	TypeStatus       = "status"
	TypeAISpeaking   = "ai_speaking"
	TypeUserSpeaking = "user_speaking"
	TypeIntensity    = "intensity"
)

const (
	recentEvents = 64
	clientQueue  = 32
)

// Controller starts and stops the session behind the panel.
type Controller interface {
	Toggle(ctx context.Context, on bool) error
	Active() bool
}

// State is what a page renders.
type State struct {
	Active       bool   `json:"active"`
	Status       string `json:"status"`
	AISpeaking   bool   `json:"ai_speaking"`
	UserSpeaking bool   `json:"user_speaking"`
	Intensity    int    `json:"intensity"`
}

// Message is one push to the pages. State is the full state after the
// change named by Type.
type Message struct {
	Type  string `json:"type"`
	Time  int64  `json:"time"`
	State State  `json:"state"`
}

// Option configures a Panel.
type Option func(*Panel)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Panel) {
		p.logger = l
	}
}

// Panel fans presenter calls out to connected pages.
type Panel struct {
	logger *slog.Logger
	recent *buffer.RingBuffer[Message]

	mu      sync.Mutex
	ctl     Controller
	state   State
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	send chan Message
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// New creates a Panel showing the idle title.
func New(opts ...Option) *Panel {
	p := &Panel{
		logger:  slog.Default(),
		recent:  buffer.RingN[Message](recentEvents),
		state:   State{Status: voice.StatusIdle},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnStatus implements voice.Presenter.
func (p *Panel) OnStatus(text string) {
	p.update(TypeStatus, true, func(s *State) bool {
		s.Status = text
		return true
	})
}

// OnAISpeakingChanged implements voice.Presenter.
func (p *Panel) OnAISpeakingChanged(speaking bool) {
	p.update(TypeAISpeaking, true, func(s *State) bool {
		s.AISpeaking = speaking
		if !speaking {
			s.Intensity = 0
		}
		return true
	})
}

// OnUserSpeakingChanged implements voice.Presenter.
func (p *Panel) OnUserSpeakingChanged(speaking bool) {
	p.update(TypeUserSpeaking, true, func(s *State) bool {
		s.UserSpeaking = speaking
		return true
	})
}

// OnLevel implements voice.LevelPresenter. Only intensity changes are
// pushed; frame levels arrive far faster than a page redraws.
func (p *Panel) OnLevel(r audiolevel.Report) {
	p.update(TypeIntensity, false, func(s *State) bool {
		if s.Intensity == r.Intensity {
			return false
		}
		s.Intensity = r.Intensity
		return true
	})
}

// State returns the current state.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Recent returns the latest pushed messages, oldest first.
func (p *Panel) Recent() []Message {
	return p.recent.Bytes()
}

// Close disconnects every page.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for c := range p.clients {
		c.close()
		delete(p.clients, c)
	}
}

func (p *Panel) bind(ctl Controller) {
	p.mu.Lock()
	p.ctl = ctl
	p.mu.Unlock()
}

func (p *Panel) controller() Controller {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctl
}

func (p *Panel) snapshotLocked() State {
	s := p.state
	if p.ctl != nil {
		s.Active = p.ctl.Active()
	}
	return s
}

func (p *Panel) update(typ string, record bool, apply func(*State) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !apply(&p.state) {
		return
	}
	msg := Message{Type: typ, Time: time.Now().UnixMilli(), State: p.snapshotLocked()}
	if record {
		p.recent.Add(msg)
	}
	for c := range p.clients {
		select {
		case c.send <- msg:
		default:
			p.logger.Debug("panel: client queue full, dropping", "type", typ)
		}
	}
}

// subscribe registers a client whose first message is the current state.
// It returns nil once the panel is closed.
func (p *Panel) subscribe() *client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	c := &client{send: make(chan Message, clientQueue)}
	c.send <- Message{Type: TypeState, Time: time.Now().UnixMilli(), State: p.snapshotLocked()}
	p.clients[c] = struct{}{}
	return c
}

func (p *Panel) unsubscribe(c *client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; ok {
		delete(p.clients, c)
		c.close()
	}
}

var (
	_ voice.Presenter      = (*Panel)(nil)
	_ voice.LevelPresenter = (*Panel)(nil)
)
