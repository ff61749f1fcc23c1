package openairealtime

// Models supported by OpenAI Realtime API.
const (
	// ModelGPT4oRealtimePreview is the GPT-4o realtime preview model.
	ModelGPT4oRealtimePreview = "gpt-4o-realtime-preview"
	// ModelGPT4oRealtimePreview20241217 is a specific version.
	ModelGPT4oRealtimePreview20241217 = "gpt-4o-realtime-preview-2024-12-17"
	// ModelGPT4oMiniRealtimePreview is the GPT-4o mini realtime preview model.
	ModelGPT4oMiniRealtimePreview = "gpt-4o-mini-realtime-preview"
	// ModelGPT4oMiniRealtimePreview20241217 is a specific version.
	ModelGPT4oMiniRealtimePreview20241217 = "gpt-4o-mini-realtime-preview-2024-12-17"

	// DefaultModel is used when no model is configured.
	DefaultModel = ModelGPT4oMiniRealtimePreview20241217
)

// Audio formats supported by the Realtime API.
const (
	// AudioFormatPCM16 is 16-bit PCM audio at 24kHz, mono, little-endian.
	AudioFormatPCM16 = "pcm16"
	// AudioFormatG711ULaw is G.711 μ-law audio at 8kHz.
	AudioFormatG711ULaw = "g711_ulaw"
	// AudioFormatG711ALaw is G.711 A-law audio at 8kHz.
	AudioFormatG711ALaw = "g711_alaw"
)

// Voice options for audio output.
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceBallad  = "ballad"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

// VAD modes for turn detection.
const (
	// VADServerVAD enables server-side voice activity detection.
	VADServerVAD = "server_vad"
	// VADSemanticVAD enables semantic voice activity detection.
	VADSemanticVAD = "semantic_vad"
)

// Eagerness values for semantic VAD.
const (
	EagernessLow    = "low"
	EagernessMedium = "medium"
	EagernessHigh   = "high"
	EagernessAuto   = "auto"
)

// Noise reduction profiles.
const (
	NoiseReductionNearField = "near_field"
	NoiseReductionFarField  = "far_field"
)

// Modality types.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// SessionConfig contains session parameters, used both when creating an
// ephemeral session and in session.update events.
type SessionConfig struct {
	// Modalities specifies the output modalities.
	// Default: ["text", "audio"]
	Modalities []string `json:"modalities,omitzero"`

	// Instructions is the system prompt.
	Instructions string `json:"instructions,omitzero"`

	// Voice is the voice ID for audio output.
	Voice string `json:"voice,omitzero"`

	// InputAudioFormat specifies the input audio format.
	// Default: pcm16
	InputAudioFormat string `json:"input_audio_format,omitzero"`

	// OutputAudioFormat specifies the output audio format.
	// Default: pcm16
	OutputAudioFormat string `json:"output_audio_format,omitzero"`

	// InputAudioTranscription configures input audio transcription.
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitzero"`

	// InputAudioNoiseReduction filters input audio before VAD and the model.
	InputAudioNoiseReduction *NoiseReduction `json:"input_audio_noise_reduction,omitzero"`

	// TurnDetection configures voice activity detection.
	// Use nil to keep the current setting.
	TurnDetection *TurnDetection `json:"turn_detection,omitzero"`
}

// TranscriptionConfig configures input audio transcription.
type TranscriptionConfig struct {
	// Model is the transcription model to use.
	// Default: whisper-1
	Model string `json:"model,omitzero"`
}

// NoiseReduction configures input noise reduction.
type NoiseReduction struct {
	// Type is "near_field" or "far_field".
	Type string `json:"type"`
}

// TurnDetection configures voice activity detection.
type TurnDetection struct {
	// Type is the VAD mode: "server_vad" or "semantic_vad".
	Type string `json:"type,omitzero"`

	// Threshold is the VAD sensitivity (0.0-1.0, server_vad only).
	// Default: 0.5
	Threshold float64 `json:"threshold,omitzero"`

	// PrefixPaddingMs is the padding before speech start (ms).
	// Default: 300
	PrefixPaddingMs int `json:"prefix_padding_ms,omitzero"`

	// SilenceDurationMs is the silence duration to detect end of speech (ms).
	// Default: 500
	SilenceDurationMs int `json:"silence_duration_ms,omitzero"`

	// CreateResponse specifies whether to automatically create a response
	// when VAD detects end of speech.
	// Default: true
	CreateResponse *bool `json:"create_response,omitzero"`

	// InterruptResponse specifies whether to interrupt the current response
	// when the user starts speaking.
	// Default: true
	InterruptResponse *bool `json:"interrupt_response,omitzero"`

	// Eagerness controls how eagerly the model responds (semantic_vad only).
	// Higher eagerness means faster responses but may interrupt the user.
	// Values: "low", "medium", "high", "auto". Default: "auto"
	Eagerness string `json:"eagerness,omitzero"`
}

// SemanticVAD returns semantic turn detection with automatic responses.
func SemanticVAD(eagerness string, interruptResponse bool) TurnDetection {
	return TurnDetection{
		Type:              VADSemanticVAD,
		Eagerness:         eagerness,
		CreateResponse:    Bool(true),
		InterruptResponse: Bool(interruptResponse),
	}
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// SessionResource represents the session state returned by the server.
type SessionResource struct {
	ID                       string               `json:"id,omitzero"`
	Object                   string               `json:"object,omitzero"`
	Model                    string               `json:"model,omitzero"`
	ExpiresAt                int64                `json:"expires_at,omitzero"`
	Modalities               []string             `json:"modalities,omitzero"`
	Instructions             string               `json:"instructions,omitzero"`
	Voice                    string               `json:"voice,omitzero"`
	InputAudioFormat         string               `json:"input_audio_format,omitzero"`
	OutputAudioFormat        string               `json:"output_audio_format,omitzero"`
	InputAudioTranscription  *TranscriptionConfig `json:"input_audio_transcription,omitzero"`
	InputAudioNoiseReduction *NoiseReduction      `json:"input_audio_noise_reduction,omitzero"`
	TurnDetection            *TurnDetection       `json:"turn_detection,omitzero"`
	ClientSecret             *ClientSecret        `json:"client_secret,omitzero"`
}
