package voice

import (
	"strings"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audiolevel"
)

// Status texts shown by presenters.
const (
	StatusIdle            = "ACS AI Voice Assistant"
	StatusConnecting      = "Connecting to AI..."
	StatusReady           = "AI is ready to talk"
	StatusConnected       = "Connected - I'm listening..."
	StatusAISpeaking      = "AI is speaking..."
	StatusAIListening     = "AI is listening..."
	StatusUserSpeaking    = "Listening to you..."
	StatusProcessing      = "Processing your request..."
	statusCredentialError = "Failed to get session token: "
	statusCaptureError    = "Microphone error: "
	statusConnectionError = "Connection error: "
	statusConnectionLost  = "Connection lost: "
)

// Presenter renders session state. Calls are never made while the Manager
// or Arbitrator hold their locks, and may come from any goroutine.
type Presenter interface {
	OnStatus(text string)
	OnAISpeakingChanged(speaking bool)
	OnUserSpeakingChanged(speaking bool)
}

// LevelPresenter is implemented by presenters that also draw the
// per-frame audio level.
type LevelPresenter interface {
	OnLevel(r audiolevel.Report)
}

// Presenters fans calls out to each presenter in order.
func Presenters(ps ...Presenter) Presenter {
	return multiPresenter(ps)
}

type multiPresenter []Presenter

func (m multiPresenter) OnStatus(text string) {
	for _, p := range m {
		p.OnStatus(text)
	}
}

func (m multiPresenter) OnAISpeakingChanged(speaking bool) {
	for _, p := range m {
		p.OnAISpeakingChanged(speaking)
	}
}

func (m multiPresenter) OnUserSpeakingChanged(speaking bool) {
	for _, p := range m {
		p.OnUserSpeakingChanged(speaking)
	}
}

func (m multiPresenter) OnLevel(r audiolevel.Report) {
	for _, p := range m {
		if lp, ok := p.(LevelPresenter); ok {
			lp.OnLevel(r)
		}
	}
}

type nopPresenter struct{}

func (nopPresenter) OnStatus(string)            {}
func (nopPresenter) OnAISpeakingChanged(bool)   {}
func (nopPresenter) OnUserSpeakingChanged(bool) {}

// IsFailureStatus reports whether a status text describes a failed or lost
// session.
func IsFailureStatus(text string) bool {
	for _, prefix := range []string{statusCredentialError, statusCaptureError, statusConnectionError, statusConnectionLost} {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}
