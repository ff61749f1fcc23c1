package openairealtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Client event types (sent from client to server).
const (
	EventTypeSessionUpdate  = "session.update"
	EventTypeResponseCancel = "response.cancel"
)

// Server event types (sent from server to client).
const (
	// Error event
	EventTypeError = "error"

	// Session events
	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	// Input audio buffer events
	EventTypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	// Output audio buffer events (WebRTC only). They bracket the span in
	// which the model's audio is actually playing out on the media track.
	EventTypeOutputAudioBufferStarted = "output_audio_buffer.started"
	EventTypeOutputAudioBufferStopped = "output_audio_buffer.stopped"
	EventTypeOutputAudioBufferCleared = "output_audio_buffer.cleared"

	// Response events
	EventTypeResponseCreated = "response.created"
	EventTypeResponseDone    = "response.done"

	// Response audio transcript events
	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"

	// Rate limits event
	EventTypeRateLimitsUpdated = "rate_limits.updated"
)

// ServerEvent represents a server event received over the data channel.
// Only the fields this client acts on are decoded; Raw keeps the rest.
type ServerEvent struct {
	// Type is the event type.
	Type string `json:"type"`

	// EventID is the unique identifier for this event.
	EventID string `json:"event_id,omitzero"`

	// Session contains session information (for session.created, session.updated).
	Session *SessionResource `json:"session,omitzero"`

	// ItemID is the ID of the item (for input audio buffer events).
	ItemID string `json:"item_id,omitzero"`

	// AudioStartMs is the start time in milliseconds (for speech_started).
	AudioStartMs int `json:"audio_start_ms,omitzero"`

	// AudioEndMs is the end time in milliseconds (for speech_stopped).
	AudioEndMs int `json:"audio_end_ms,omitzero"`

	// ResponseID is the response identifier.
	ResponseID string `json:"response_id,omitzero"`

	// Transcript is the transcription text (for *.transcript.done).
	Transcript string `json:"transcript,omitzero"`

	// Delta contains incremental text (for *.delta events).
	Delta string `json:"delta,omitzero"`

	// Error is set on "error" events.
	Error *EventError `json:"error,omitzero"`

	// Raw contains the original JSON message.
	Raw []byte `json:"-"`
}

// ParseEvent decodes a data channel message into a ServerEvent.
func ParseEvent(message []byte) (*ServerEvent, error) {
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		msgStr := string(message)
		if len(msgStr) > 1000 {
			msgStr = msgStr[:1000] + "..."
		}
		slog.Debug("received message", "len", len(message), "content", msgStr)
	}

	var event ServerEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return nil, fmt.Errorf("openai-realtime: parse error: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("openai-realtime: parse error: missing type")
	}
	event.Raw = message
	return &event, nil
}

// SessionUpdateEvent is the client event that reconfigures a live session.
type SessionUpdateEvent struct {
	EventID string         `json:"event_id,omitzero"`
	Type    string         `json:"type"`
	Session *SessionConfig `json:"session"`
}

// NewSessionUpdate builds a session.update that only changes turn
// detection.
func NewSessionUpdate(td TurnDetection) *SessionUpdateEvent {
	return &SessionUpdateEvent{
		EventID: generateEventID(),
		Type:    EventTypeSessionUpdate,
		Session: &SessionConfig{TurnDetection: &td},
	}
}

// EncodeEvent marshals a client event for the data channel.
func EncodeEvent(event any) ([]byte, error) {
	jsonBytes, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		str := string(jsonBytes)
		if len(str) > 500 {
			str = str[:500] + "..."
		}
		slog.Debug("sending event", "content", str)
	}
	return jsonBytes, nil
}

// generateEventID generates a unique event ID.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}
