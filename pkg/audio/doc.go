// Package audio groups the audio packages a voice session is built from:
//
//   - pcm: sample formats and duration arithmetic
//   - opus: libopus encoder and decoder
//   - portaudio: capture and playback streams
package audio
