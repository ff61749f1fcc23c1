package audiolevel

import (
	"log/slog"
	"sync"
	"time"
)

// FrameInterval is the default sampling cadence (60 frames per second).
const FrameInterval = time.Second / 60

// Source is a live PCM stream that can be tapped.
type Source interface {
	// Tap registers fn to receive every decoded mono sample block and
	// returns a function that removes it.
	Tap(fn func(samples []int16)) (untap func())
	// Done is closed when the stream ends.
	Done() <-chan struct{}
}

// Report is the per-frame result of a Probe.
type Report struct {
	Level     float64
	Loud      bool
	Intensity int
}

// Ticker delivers frame ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// Option configures a Monitor.
type Option func(*Monitor)

// WithThreshold sets the loudness threshold on the 0-255 scale.
func WithThreshold(v float64) Option {
	return func(m *Monitor) {
		m.threshold = v
	}
}

// WithFrameInterval sets the frame cadence.
func WithFrameInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithTicker replaces the time.Ticker used for frames.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(m *Monitor) {
		m.newTicker = newTicker
	}
}

// WithAnalyserOptions passes options to every Analyser the Monitor creates.
func WithAnalyserOptions(opts ...AnalyserOption) Option {
	return func(m *Monitor) {
		m.analyserOpts = append(m.analyserOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// Monitor creates probes on live streams.
type Monitor struct {
	threshold    float64
	interval     time.Duration
	newTicker    func(time.Duration) Ticker
	analyserOpts []AnalyserOption
	logger       *slog.Logger
}

// NewMonitor creates a Monitor with browser-equivalent defaults.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		threshold: DefaultThreshold,
		interval:  FrameInterval,
		newTicker: func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the loudness threshold.
func (m *Monitor) Threshold() float64 {
	return m.threshold
}

// Attach taps src and starts the frame loop. report is called from the
// loop goroutine once per frame while alive returns true.
func (m *Monitor) Attach(src Source, alive func() bool, report func(Report)) *Probe {
	p := &Probe{
		analyser: NewAnalyser(m.analyserOpts...),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	untap := src.Tap(p.analyser.Write)
	ticker := m.newTicker(m.interval)
	go m.run(p, src, ticker, untap, alive, report)
	return p
}

func (m *Monitor) run(p *Probe, src Source, ticker Ticker, untap func(), alive func() bool, report func(Report)) {
	defer close(p.done)
	defer untap()
	defer ticker.Stop()

	frames := 0
	defer func() {
		m.logger.Debug("audiolevel: probe stopped", "frames", frames)
	}()

	for {
		if !alive() {
			return
		}
		select {
		case <-p.stop:
			return
		case <-src.Done():
			return
		case <-ticker.C():
		}
		if !alive() {
			return
		}
		level := p.analyser.Level()
		frames++
		report(Report{
			Level:     level,
			Loud:      level > m.threshold,
			Intensity: Intensity(level),
		})
	}
}

// Probe is a running frame loop on one stream.
type Probe struct {
	analyser *Analyser
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Stop ends the frame loop and waits for it to exit. It is safe to call
// more than once. Use StopAsync from inside the report callback.
func (p *Probe) Stop() {
	p.StopAsync()
	<-p.done
}

// StopAsync ends the frame loop without waiting.
func (p *Probe) StopAsync() {
	p.once.Do(func() { close(p.stop) })
}

// Done is closed once the frame loop has exited.
func (p *Probe) Done() <-chan struct{} {
	return p.done
}
