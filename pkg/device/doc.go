// Package device binds the voice session to local audio hardware through
// PortAudio: a gated capture microphone and a speaker that plays the
// model's decoded stream.
package device
