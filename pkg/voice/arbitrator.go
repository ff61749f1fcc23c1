package voice

import (
	"log/slog"
	"sync"
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/observability"
)

// SpeakingState is the turn-taking state driven by event channel messages.
type SpeakingState int

const (
	Idle SpeakingState = iota
	AISpeaking
)

func (s SpeakingState) String() string {
	if s == AISpeaking {
		return "ai_speaking"
	}
	return "idle"
}

// Arbitrator decides when the microphone is live and when the speaking
// animation shows.
//
// Microphone state follows event channel messages only. Animation state
// follows the audio level only. Microphone changes are applied while the
// arbitrator's lock is held so their order is total; presenter calls are
// made after it is released.
//
// Every Reset starts a new generation. Timers and callers holding an older
// generation are ignored.
type Arbitrator struct {
	micDelay  time.Duration
	holdDelay time.Duration
	clock     Clock
	presenter Presenter
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu           sync.Mutex
	gen          uint64
	mic          MicController
	state        SpeakingState
	userSpeaking bool
	animating    bool
	loud         bool
	reenable     Timer
	reenableSeq  uint64
	hold         Timer
	holdSeq      uint64
}

// NewArbitrator creates an Arbitrator in the Idle state.
func NewArbitrator(cfg Config, clock Clock, presenter Presenter) *Arbitrator {
	if clock == nil {
		clock = SystemClock{}
	}
	if presenter == nil {
		presenter = nopPresenter{}
	}
	return &Arbitrator{
		micDelay:  cfg.MicReenableDelay,
		holdDelay: cfg.AnimationHold,
		clock:     clock,
		presenter: presenter,
		logger:    slog.Default(),
		gen:       1,
	}
}

func (a *Arbitrator) withMetrics(m *observability.Metrics) *Arbitrator {
	a.metrics = m
	return a
}

func (a *Arbitrator) withLogger(l *slog.Logger) *Arbitrator {
	a.logger = l
	return a
}

// Generation returns the current generation.
func (a *Arbitrator) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

// State returns the current speaking state.
func (a *Arbitrator) State() SpeakingState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Animating reports whether the speaking animation is showing.
func (a *Arbitrator) Animating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.animating
}

// UserSpeaking reports whether the server last saw the user start speaking.
func (a *Arbitrator) UserSpeaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userSpeaking
}

// Reset cancels timers, unbinds the microphone, returns to Idle and starts
// a new generation, which it returns. Visible state that was on is
// reverted.
func (a *Arbitrator) Reset() uint64 {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.stopTimersLocked()
	a.mic = nil
	a.state = Idle
	a.loud = false
	wasAnimating, wasUserSpeaking := a.animating, a.userSpeaking
	a.animating = false
	a.userSpeaking = false
	a.mu.Unlock()

	if wasAnimating {
		a.presenter.OnAISpeakingChanged(false)
	}
	if wasUserSpeaking {
		a.presenter.OnUserSpeakingChanged(false)
	}
	return gen
}

// Bind attaches the session's microphone for generation gen. It returns
// false if gen is stale.
func (a *Arbitrator) Bind(gen uint64, mic MicController) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return false
	}
	a.mic = mic
	if a.state == AISpeaking && mic != nil {
		a.setMicLocked(false)
	}
	return true
}

// HandleEvent applies an event channel signal to the current generation.
func (a *Arbitrator) HandleEvent(ev Event) {
	a.handle(a.Generation(), ev)
}

// OnLevel applies an audio level signal to the current generation.
func (a *Arbitrator) OnLevel(loud bool) {
	a.level(a.Generation(), loud)
}

func (a *Arbitrator) handle(gen uint64, ev Event) {
	var notify []func()

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		a.logger.Debug("voice: dropping event for stale session", "event", ev)
		return
	}
	switch ev {
	case EventAIAudioStarted:
		a.state = AISpeaking
		a.cancelReenableLocked()
		a.setMicLocked(false)
		notify = append(notify, a.status(StatusAISpeaking))

	case EventAIAudioStopped:
		a.state = Idle
		a.cancelReenableLocked()
		seq := a.reenableSeq
		a.reenable = a.clock.AfterFunc(a.micDelay, func() { a.reenableFired(gen, seq) })

	case EventUserSpeechStarted:
		a.userSpeaking = true
		notify = append(notify,
			func() { a.presenter.OnUserSpeakingChanged(true) },
			a.status(StatusUserSpeaking))

	case EventUserSpeechStopped:
		a.userSpeaking = false
		notify = append(notify,
			func() { a.presenter.OnUserSpeakingChanged(false) },
			a.status(StatusProcessing))
	}
	a.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

func (a *Arbitrator) reenableFired(gen, seq uint64) {
	a.mu.Lock()
	if gen != a.gen || seq != a.reenableSeq || a.state == AISpeaking {
		a.mu.Unlock()
		return
	}
	a.reenable = nil
	a.setMicLocked(true)
	a.mu.Unlock()

	a.presenter.OnStatus(StatusAIListening)
}

func (a *Arbitrator) level(gen uint64, loud bool) {
	var notify func()

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	wasLoud := a.loud
	a.loud = loud
	switch {
	case loud && !a.animating:
		a.animating = true
		notify = func() { a.presenter.OnAISpeakingChanged(true) }
	case loud:
		// Already showing; a pending revert re-checks a.loud.
	case wasLoud && a.animating:
		a.cancelHoldLocked()
		seq := a.holdSeq
		a.hold = a.clock.AfterFunc(a.holdDelay, func() { a.holdFired(gen, seq) })
	}
	a.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (a *Arbitrator) holdFired(gen, seq uint64) {
	a.mu.Lock()
	if gen != a.gen || seq != a.holdSeq || a.loud || !a.animating {
		a.mu.Unlock()
		return
	}
	a.hold = nil
	a.animating = false
	a.mu.Unlock()

	a.presenter.OnAISpeakingChanged(false)
}

func (a *Arbitrator) status(text string) func() {
	return func() { a.presenter.OnStatus(text) }
}

func (a *Arbitrator) setMicLocked(enabled bool) {
	if a.mic == nil {
		return
	}
	a.mic.SetEnabled(enabled)
	a.metrics.MicToggled(enabled)
}

func (a *Arbitrator) cancelReenableLocked() {
	a.reenableSeq++
	if a.reenable != nil {
		a.reenable.Stop()
		a.reenable = nil
	}
}

func (a *Arbitrator) cancelHoldLocked() {
	a.holdSeq++
	if a.hold != nil {
		a.hold.Stop()
		a.hold = nil
	}
}

func (a *Arbitrator) stopTimersLocked() {
	a.cancelReenableLocked()
	a.cancelHoldLocked()
}
