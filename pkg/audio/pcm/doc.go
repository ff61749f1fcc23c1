// Package pcm describes the 16-bit linear PCM formats used for capture and
// playback.
//
// Example usage:
//
//	format := pcm.L16Mono48K
//
//	// Samples in one 20ms Opus frame
//	n := format.SamplesInDuration(20 * time.Millisecond) // 960
package pcm
