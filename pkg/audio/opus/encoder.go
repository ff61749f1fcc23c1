package opus

/*
#cgo pkg-config: opus
#include <opus.h>
#include <stdlib.h>

static int opus_encoder_set_bitrate(OpusEncoder *enc, opus_int32 bitrate) {
    return opus_encoder_ctl(enc, OPUS_SET_BITRATE(bitrate));
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

// maxPacketBytes is the recommended upper bound for one encoded packet.
const maxPacketBytes = 4000

// Encoder wraps an Opus encoder configured for voice.
type Encoder struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	cEnc       *C.OpusEncoder
}

// NewVoIPEncoder creates a new Opus encoder optimized for voice.
func NewVoIPEncoder(sampleRate, channels int) (*Encoder, error) {
	var err C.int
	cEnc := C.opus_encoder_create(C.opus_int32(sampleRate), C.int(channels), C.OPUS_APPLICATION_VOIP, &err)
	if err != C.OPUS_OK {
		return nil, fmt.Errorf("opus: encoder create failed: %s", C.GoString(C.opus_strerror(err)))
	}
	return &Encoder{
		sampleRate: sampleRate,
		channels:   channels,
		cEnc:       cEnc,
	}, nil
}

// Close releases the encoder resources.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cEnc != nil {
		C.opus_encoder_destroy(e.cEnc)
		e.cEnc = nil
	}
}

// Encode encodes one frame of interleaved PCM. len(pcm) must be
// frameSize*channels, and frameSize must be a valid Opus frame length
// (2.5, 5, 10, 20, 40 or 60ms).
func (e *Encoder) Encode(pcm []int16, frameSize int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cEnc == nil {
		return nil, ErrClosed
	}
	if len(pcm) < frameSize*e.channels {
		return nil, fmt.Errorf("opus: short frame: %d samples, want %d", len(pcm), frameSize*e.channels)
	}

	buf := make([]byte, maxPacketBytes)
	n := C.opus_encode(e.cEnc,
		(*C.opus_int16)(unsafe.Pointer(&pcm[0])), C.int(frameSize),
		(*C.uchar)(unsafe.Pointer(&buf[0])), C.opus_int32(len(buf)))
	if n < 0 {
		return nil, fmt.Errorf("opus: encode failed: %s", C.GoString(C.opus_strerror(n)))
	}
	return buf[:n], nil
}

// SetBitrate sets the target bitrate in bits per second.
func (e *Encoder) SetBitrate(bitrate int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cEnc == nil {
		return ErrClosed
	}
	ret := C.opus_encoder_set_bitrate(e.cEnc, C.opus_int32(bitrate))
	if ret != C.OPUS_OK {
		return fmt.Errorf("opus: set bitrate failed: %s", C.GoString(C.opus_strerror(ret)))
	}
	return nil
}

// SampleRate returns the sample rate of this encoder.
func (e *Encoder) SampleRate() int {
	return e.sampleRate
}

// Channels returns the number of channels of this encoder.
func (e *Encoder) Channels() int {
	return e.channels
}
