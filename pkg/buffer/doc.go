// Package buffer provides a thread-safe ring buffer for sliding windows of
// streaming data.
//
// A RingBuffer has a fixed capacity and overwrites the oldest elements when
// full. Writers never block, and readers take copies, so a producer (an
// audio tap) and a consumer (a per-frame analyser) can share one buffer
// without coordination:
//
//	rb := buffer.RingN[int16](256)
//	rb.Write(samples)
//
//	window := make([]int16, 256)
//	rb.Latest(window)
package buffer
