// Package voice runs one full-duplex voice conversation with a hosted
// speech-to-speech model.
//
// A Manager owns the session lifecycle: it fetches an ephemeral credential,
// builds a peer connection with a microphone track and an event channel,
// negotiates with the model endpoint and tears everything down on Stop or
// on any failure. Each Start takes an epoch token; every continuation after
// a blocking step re-checks it, so a superseded start releases what it
// allocated and returns ErrAborted without touching the presenter.
//
// An Arbitrator decides who holds the floor. Event channel messages are
// authoritative for microphone muting: the microphone is disabled while the
// model's audio plays and re-enabled a short delay after it stops. The
// audio level of the remote stream only drives the speaking animation,
// with a hold so brief dips do not flicker it. The two signals never cross.
//
// Platform capabilities (peer connection, capture device, playback sink)
// are interfaces so the state machine can be tested with in-memory fakes;
// pkg/rtcpeer and pkg/device provide the real ones.
package voice
