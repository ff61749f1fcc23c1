package audiolevel

import (
	"math"
	"sync"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/buffer"
)

// Analyser defaults, matching the Web Audio AnalyserNode.
const (
	DefaultFFTSize     = 256
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// AnalyserOption configures an Analyser.
type AnalyserOption func(*Analyser)

// WithFFTSize sets the transform size. It must be a power of two >= 32.
func WithFFTSize(n int) AnalyserOption {
	return func(a *Analyser) {
		a.fftSize = n
	}
}

// WithSmoothing sets the time-constant used to blend each frame with the
// previous one, in [0, 1).
func WithSmoothing(tau float64) AnalyserOption {
	return func(a *Analyser) {
		a.smoothing = tau
	}
}

// WithDecibelRange sets the range mapped onto 0-255.
func WithDecibelRange(minDB, maxDB float64) AnalyserOption {
	return func(a *Analyser) {
		a.minDB = minDB
		a.maxDB = maxDB
	}
}

// Analyser computes byte frequency data over a sliding window of samples.
// Write may be called concurrently with the read methods.
type Analyser struct {
	fftSize      int
	smoothing    float64
	minDB, maxDB float64

	window *buffer.RingBuffer[int16]

	mu       sync.Mutex
	blackman []float64
	smoothed []float64
	frame    []int16
	re, im   []float64
	bins     []byte
}

// NewAnalyser creates an Analyser.
func NewAnalyser(opts ...AnalyserOption) *Analyser {
	a := &Analyser{
		fftSize:   DefaultFFTSize,
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDecibels,
		maxDB:     DefaultMaxDecibels,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fftSize < 32 || a.fftSize&(a.fftSize-1) != 0 {
		panic("audiolevel: fft size must be a power of two >= 32")
	}
	if a.maxDB <= a.minDB {
		panic("audiolevel: max decibels must exceed min decibels")
	}

	a.window = buffer.RingN[int16](a.fftSize)
	a.blackman = blackmanWindow(a.fftSize)
	a.smoothed = make([]float64, a.fftSize/2)
	a.frame = make([]int16, a.fftSize)
	a.re = make([]float64, a.fftSize)
	a.im = make([]float64, a.fftSize)
	a.bins = make([]byte, a.fftSize/2)
	return a
}

// FrequencyBinCount returns half the FFT size.
func (a *Analyser) FrequencyBinCount() int {
	return a.fftSize / 2
}

// Write feeds mono samples into the analysis window.
func (a *Analyser) Write(samples []int16) {
	a.window.Write(samples)
}

// ByteFrequencyData fills dst with the current frequency data scaled to
// 0-255. Each call advances the smoothing state by one frame.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.analyseLocked()
	copy(dst, a.bins)
}

// Level computes one frame of frequency data and returns the mean bin value.
func (a *Analyser) Level() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.analyseLocked()
	var sum int
	for _, b := range a.bins {
		sum += int(b)
	}
	return float64(sum) / float64(len(a.bins))
}

// Reset clears the sample window and the smoothing history.
func (a *Analyser) Reset() {
	a.window.Reset()
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.smoothed)
}

func (a *Analyser) analyseLocked() {
	a.window.Latest(a.frame)
	n := float64(a.fftSize)
	for i, s := range a.frame {
		a.re[i] = float64(s) / 32768 * a.blackman[i]
		a.im[i] = 0
	}
	fft(a.re, a.im)

	scale := 255 / (a.maxDB - a.minDB)
	for k := range a.smoothed {
		mag := math.Hypot(a.re[k], a.im[k]) / n
		s := a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s
		a.bins[k] = toByte(20*math.Log10(s), a.minDB, scale)
	}
}

func toByte(db, minDB, scale float64) byte {
	v := math.Floor(scale * (db - minDB))
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 255:
		return 255
	}
	return byte(v)
}

// blackmanWindow returns the classic Blackman window with alpha = 0.16.
func blackmanWindow(n int) []float64 {
	const alpha = 0.16
	a0 := (1 - alpha) / 2
	a1 := 0.5
	a2 := alpha / 2
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}
