// Package rtcpeer implements the voice peer interfaces on pion/webrtc.
//
// A Peer sends the microphone as an Opus track, decodes the model's Opus
// track into 48kHz mono PCM that any number of consumers can tap, and
// carries JSON events on a reliable ordered data channel.
package rtcpeer
