package opus

import (
	"errors"
	"math"
	"testing"
)

func sine(n, sampleRate int, freq float64) []int16 {
	pcm := make([]int16, n)
	for i := range pcm {
		ti := float64(i) / float64(sampleRate)
		pcm[i] = int16(math.Sin(2*math.Pi*freq*ti) * 16000)
	}
	return pcm
}

func TestEncoderDecoder(t *testing.T) {
	sampleRate := 48000
	frameSize := sampleRate * 20 / 1000 // 20ms frame

	enc, err := NewVoIPEncoder(sampleRate, 1)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()

	dec, err := NewDecoder(sampleRate, 1)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	defer dec.Close()

	packet, err := enc.Encode(sine(frameSize, sampleRate, 440), frameSize)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(packet) == 0 {
		t.Fatal("empty packet")
	}

	decoded, err := dec.Decode(packet)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != frameSize {
		t.Errorf("decoded %d samples, want %d", len(decoded), frameSize)
	}
}

func TestDecoderPLC(t *testing.T) {
	sampleRate := 48000
	frameSize := sampleRate * 20 / 1000

	dec, err := NewDecoder(sampleRate, 1)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	defer dec.Close()

	buf := make([]int16, frameSize)
	n, err := dec.DecodeTo(nil, buf)
	if err != nil {
		t.Fatalf("PLC decode failed: %v", err)
	}
	if n != frameSize {
		t.Errorf("PLC generated %d samples, want %d", n, frameSize)
	}
}

func TestEncoderShortFrame(t *testing.T) {
	enc, err := NewVoIPEncoder(48000, 1)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()

	if _, err := enc.Encode(make([]int16, 10), 960); err == nil {
		t.Error("expected error for short frame")
	}
}

func TestClosed(t *testing.T) {
	enc, err := NewVoIPEncoder(48000, 1)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	enc.Close()
	enc.Close()
	if _, err := enc.Encode(make([]int16, 960), 960); !errors.Is(err, ErrClosed) {
		t.Errorf("Encode after Close: %v", err)
	}

	dec, err := NewDecoder(48000, 1)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	dec.Close()
	if _, err := dec.Decode([]byte{0}); !errors.Is(err, ErrClosed) {
		t.Errorf("Decode after Close: %v", err)
	}
}
