package buffer

import "sync"

// RingBuffer is a thread-safe fixed-size buffer that overwrites the oldest
// elements when full. It keeps a sliding window of the most recent data and
// never blocks: writers always succeed and readers take non-consuming
// snapshots.
//
// The buffer uses monotonically increasing head and tail counters; the slot
// for a counter value is its remainder modulo the capacity.
type RingBuffer[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int64
}

// RingN creates a new RingBuffer with the specified size.
func RingN[T any](size int) *RingBuffer[T] {
	if size <= 0 {
		panic("buffer: ring size must be positive")
	}
	return &RingBuffer[T]{buf: make([]T, size)}
}

// Write appends p to the buffer, overwriting the oldest elements when the
// buffer is full. It always consumes all of p.
func (rb *RingBuffer[T]) Write(p []T) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := int64(len(rb.buf))
	src := p
	// Only the last len(buf) elements of p can survive.
	if int64(len(src)) > size {
		src = src[int64(len(src))-size:]
		rb.tail += int64(len(p)) - size
	}
	for len(src) > 0 {
		off := int(rb.tail % size)
		n := copy(rb.buf[off:], src)
		src = src[n:]
		rb.tail += int64(n)
	}
	if rb.tail-rb.head > size {
		rb.head = rb.tail - size
	}
	return len(p), nil
}

// Add appends a single element.
func (rb *RingBuffer[T]) Add(t T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	size := int64(len(rb.buf))
	rb.buf[rb.tail%size] = t
	rb.tail++
	if rb.tail-rb.head > size {
		rb.head++
	}
}

// Len returns the number of elements currently in the buffer.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return int(rb.tail - rb.head)
}

// Cap returns the capacity of the buffer.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.buf)
}

// Reset discards all buffered elements.
func (rb *RingBuffer[T]) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.tail = 0
}

// Bytes returns a copy of the buffered elements, oldest first.
func (rb *RingBuffer[T]) Bytes() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	out := make([]T, rb.tail-rb.head)
	rb.copyLocked(out)
	return out
}

// Latest fills dst with the most recent len(dst) elements, oldest first.
// When fewer elements are buffered, the front of dst is filled with the
// zero value. It returns the number of real elements copied.
func (rb *RingBuffer[T]) Latest(dst []T) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	avail := int(rb.tail - rb.head)
	n := min(avail, len(dst))
	var zero T
	for i := range dst[:len(dst)-n] {
		dst[i] = zero
	}
	size := int64(len(rb.buf))
	start := rb.tail - int64(n)
	for i := 0; i < n; i++ {
		dst[len(dst)-n+i] = rb.buf[(start+int64(i))%size]
	}
	return n
}

func (rb *RingBuffer[T]) copyLocked(dst []T) {
	size := int64(len(rb.buf))
	for i := range dst {
		dst[i] = rb.buf[(rb.head+int64(i))%size]
	}
}
