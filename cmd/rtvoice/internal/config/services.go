package config

import (
	"time"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/credential"
	openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

// Defaults used when neither a flag nor a service file sets a value.
const (
	DefaultBackendURL  = "http://localhost:3000"
	DefaultBackendAddr = "0.0.0.0:3000"
)

// Voice is voice.yaml, read by "rtvoice talk".
type Voice struct {
	BackendURL        string        `yaml:"backend_url,omitempty"`
	RealtimeURL       string        `yaml:"realtime_url,omitempty"`
	Model             string        `yaml:"model,omitempty"`
	MicReenableDelay  time.Duration `yaml:"mic_reenable_delay,omitempty"`
	AnimationHold     time.Duration `yaml:"animation_hold,omitempty"`
	RestartSettle     time.Duration `yaml:"restart_settle,omitempty"`
	LevelThreshold    float64       `yaml:"level_threshold,omitempty"`
	Eagerness         string        `yaml:"eagerness,omitempty"`
	InterruptResponse *bool         `yaml:"interrupt_response,omitempty"`
	PanelAddr         string        `yaml:"panel_addr,omitempty"`
	InputDevice       *int          `yaml:"input_device,omitempty"`
	OutputDevice      *int          `yaml:"output_device,omitempty"`
	ICEServers        []string      `yaml:"ice_servers,omitempty"`
}

// Apply overlays the fields that are set onto cfg.
func (v *Voice) Apply(cfg *voice.Config) {
	if v.MicReenableDelay > 0 {
		cfg.MicReenableDelay = v.MicReenableDelay
	}
	if v.AnimationHold > 0 {
		cfg.AnimationHold = v.AnimationHold
	}
	if v.RestartSettle > 0 {
		cfg.RestartSettle = v.RestartSettle
	}
	if v.Eagerness != "" {
		cfg.TurnDetection.Eagerness = v.Eagerness
	}
	if v.InterruptResponse != nil {
		cfg.TurnDetection.InterruptResponse = openairealtime.Bool(*v.InterruptResponse)
	}
}

// Backend is backend.yaml, read by "rtvoice serve".
type Backend struct {
	Addr              string `yaml:"addr,omitempty"`
	Model             string `yaml:"model,omitempty"`
	Voice             string `yaml:"voice,omitempty"`
	InstructionsFile  string `yaml:"instructions_file,omitempty"`
	Eagerness         string `yaml:"eagerness,omitempty"`
	InterruptResponse *bool  `yaml:"interrupt_response,omitempty"`
	NoiseReduction    string `yaml:"noise_reduction,omitempty"`
	PublicDir         string `yaml:"public_dir,omitempty"`
}

// Apply overlays the fields that are set onto cfg, reading the
// instructions file if one is named.
func (b *Backend) Apply(cfg *credential.ServerConfig) error {
	if b.Model != "" {
		cfg.Model = b.Model
	}
	if b.Voice != "" {
		cfg.Voice = b.Voice
	}
	if b.Eagerness != "" {
		cfg.TurnDetection.Eagerness = b.Eagerness
	}
	if b.InterruptResponse != nil {
		cfg.TurnDetection.InterruptResponse = openairealtime.Bool(*b.InterruptResponse)
	}
	if b.NoiseReduction != "" {
		cfg.NoiseReduction = b.NoiseReduction
	}
	if b.PublicDir != "" {
		cfg.PublicDir = b.PublicDir
	}
	if b.InstructionsFile != "" {
		text, err := credential.LoadInstructions(b.InstructionsFile)
		if err != nil {
			return err
		}
		cfg.Instructions = text
	}
	return nil
}
