package voice

import (
	"fmt"
	"time"

	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
)

// Config tunes the session state machine.
type Config struct {
	// MicReenableDelay is how long after the model's audio stops before
	// the microphone is re-enabled. It keeps the tail of playback out of
	// the capture path.
	MicReenableDelay time.Duration

	// AnimationHold delays the speaking-to-idle animation revert.
	AnimationHold time.Duration

	// RestartSettle is the pause between tearing down an old session and
	// building a new one.
	RestartSettle time.Duration

	// TurnDetection is sent in the session.update once connected.
	TurnDetection openairealtime.TurnDetection

	// EventChannelLabel names the data channel.
	EventChannelLabel string
}

// DefaultConfig returns the stock timings and semantic turn detection with
// low eagerness and no interruption.
func DefaultConfig() Config {
	return Config{
		MicReenableDelay:  100 * time.Millisecond,
		AnimationHold:     800 * time.Millisecond,
		RestartSettle:     100 * time.Millisecond,
		TurnDetection:     openairealtime.SemanticVAD(openairealtime.EagernessLow, false),
		EventChannelLabel: openairealtime.DataChannelLabel,
	}
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	if c.MicReenableDelay < 0 || c.AnimationHold < 0 || c.RestartSettle < 0 {
		return fmt.Errorf("voice: negative duration in config")
	}
	if c.EventChannelLabel == "" {
		return fmt.Errorf("voice: empty event channel label")
	}
	return nil
}
