// Package openairealtime implements the HTTP and data channel surface of
// OpenAI's Realtime API used by a WebRTC voice client.
//
// # Ephemeral sessions
//
// A backend holding the standard API key mints short-lived sessions:
//
//	client := openairealtime.NewClient(openairealtime.WithAPIKey(apiKey))
//	session, err := client.CreateSession(ctx, &openairealtime.SessionRequest{
//	    Model: openairealtime.DefaultModel,
//	    SessionConfig: openairealtime.SessionConfig{
//	        Voice: openairealtime.VoiceEcho,
//	    },
//	})
//	token := session.ClientSecret.Value
//
// # SDP exchange
//
// A client holding only the ephemeral token posts its offer and receives
// the answer:
//
//	answer, err := openairealtime.NewClient().ExchangeSDP(ctx, token, model, offer)
//
// # Events
//
// Server events arrive as JSON on the "oai-events" data channel:
//
//	event, err := openairealtime.ParseEvent(msg.Data)
//	switch event.Type {
//	case openairealtime.EventTypeOutputAudioBufferStarted:
//	    // model audio is playing
//	}
//
// Client events are encoded with EncodeEvent:
//
//	data, err := openairealtime.EncodeEvent(openairealtime.NewSessionUpdate(
//	    openairealtime.SemanticVAD(openairealtime.EagernessLow, false)))
package openairealtime
