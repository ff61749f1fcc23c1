// Package opus wraps libopus for the 20ms voice frames carried over RTP.
//
// Only the pieces the media path needs are exposed: a VoIP encoder for the
// microphone track and a decoder for the remote track. Both operate on
// interleaved int16 PCM.
//
// For go build: requires libopus installed via pkg-config (brew install opus)
package opus
