package voice

import openairealtime "github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/openai-realtime"

// Event is an event channel message reduced to what turn-taking needs.
type Event int

const (
	EventOther Event = iota
	EventUserSpeechStarted
	EventUserSpeechStopped
	EventAIAudioStarted
	EventAIAudioStopped
)

func (e Event) String() string {
	switch e {
	case EventUserSpeechStarted:
		return "user_speech_started"
	case EventUserSpeechStopped:
		return "user_speech_stopped"
	case EventAIAudioStarted:
		return "ai_audio_started"
	case EventAIAudioStopped:
		return "ai_audio_stopped"
	}
	return "other"
}

// ClassifyEvent maps a server event type to an Event. A cleared output
// buffer ends playback the same way a stopped one does.
func ClassifyEvent(eventType string) Event {
	switch eventType {
	case openairealtime.EventTypeInputAudioBufferSpeechStarted:
		return EventUserSpeechStarted
	case openairealtime.EventTypeInputAudioBufferSpeechStopped:
		return EventUserSpeechStopped
	case openairealtime.EventTypeOutputAudioBufferStarted:
		return EventAIAudioStarted
	case openairealtime.EventTypeOutputAudioBufferStopped,
		openairealtime.EventTypeOutputAudioBufferCleared:
		return EventAIAudioStopped
	}
	return EventOther
}
