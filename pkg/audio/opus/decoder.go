package opus

/*
#cgo pkg-config: opus
#include <opus.h>
#include <stdlib.h>
*/
import "C"
import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// MaxFrameSamples is the largest frame libopus emits per channel
// (120ms at 48kHz).
const MaxFrameSamples = 5760

// ErrClosed is returned by codec calls after Close.
var ErrClosed = errors.New("opus: codec is closed")

// Decoder wraps an Opus decoder. It is safe for concurrent use.
type Decoder struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	cDec       *C.OpusDecoder
}

// NewDecoder creates a new Opus decoder.
//
// Parameters:
//   - sampleRate: Sample rate to decode at (8000, 12000, 16000, 24000, or 48000)
//   - channels: Number of channels (1 or 2)
func NewDecoder(sampleRate, channels int) (*Decoder, error) {
	var err C.int
	cDec := C.opus_decoder_create(C.opus_int32(sampleRate), C.int(channels), &err)
	if err != C.OPUS_OK {
		return nil, fmt.Errorf("opus: decoder create failed: %s", C.GoString(C.opus_strerror(err)))
	}
	return &Decoder{
		sampleRate: sampleRate,
		channels:   channels,
		cDec:       cDec,
	}, nil
}

// Close releases the decoder resources.
func (d *Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cDec != nil {
		C.opus_decoder_destroy(d.cDec)
		d.cDec = nil
	}
}

// DecodeTo decodes one Opus packet into buf and returns the number of
// samples per channel written. An empty packet runs packet loss
// concealment for len(buf)/channels samples.
func (d *Decoder) DecodeTo(packet []byte, buf []int16) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cDec == nil {
		return 0, ErrClosed
	}
	if len(buf) < d.channels {
		return 0, errors.New("opus: output buffer too small")
	}

	var dataPtr *C.uchar
	var dataLen C.opus_int32
	if len(packet) > 0 {
		dataPtr = (*C.uchar)(unsafe.Pointer(&packet[0]))
		dataLen = C.opus_int32(len(packet))
	}

	n := C.opus_decode(d.cDec, dataPtr, dataLen,
		(*C.opus_int16)(unsafe.Pointer(&buf[0])), C.int(len(buf)/d.channels), 0)
	if n < 0 {
		return 0, fmt.Errorf("opus: decode failed: %s", C.GoString(C.opus_strerror(n)))
	}
	return int(n), nil
}

// Decode decodes one Opus packet into a newly allocated sample slice.
func (d *Decoder) Decode(packet []byte) ([]int16, error) {
	buf := make([]int16, MaxFrameSamples*d.channels)
	n, err := d.DecodeTo(packet, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n*d.channels], nil
}

// SampleRate returns the sample rate of this decoder.
func (d *Decoder) SampleRate() int {
	return d.sampleRate
}

// Channels returns the number of channels of this decoder.
func (d *Decoder) Channels() int {
	return d.channels
}
