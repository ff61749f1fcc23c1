package buffer

import (
	"slices"
	"sync"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	t.Run("size=1", func(t *testing.T) {
		rb := RingN[byte](1)
		rb.Write([]byte{1, 2, 3})

		if rb.Len() != 1 {
			t.Errorf("len=%d", rb.Len())
		}
		if got := rb.Bytes(); !slices.Equal(got, []byte{3}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("size=2", func(t *testing.T) {
		rb := RingN[byte](2)
		rb.Write([]byte{1, 2, 3})

		if rb.Len() != 2 {
			t.Errorf("len=%d", rb.Len())
		}
		if got := rb.Bytes(); !slices.Equal(got, []byte{2, 3}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("size=3", func(t *testing.T) {
		rb := RingN[byte](3)
		rb.Write([]byte{1, 2, 3})

		if rb.Len() != 3 {
			t.Errorf("len=%d", rb.Len())
		}
		if got := rb.Bytes(); !slices.Equal(got, []byte{1, 2, 3}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("size=4", func(t *testing.T) {
		rb := RingN[byte](4)
		rb.Write([]byte{1, 2, 3})

		if rb.Len() != 3 {
			t.Errorf("len=%d", rb.Len())
		}
		if got := rb.Bytes(); !slices.Equal(got, []byte{1, 2, 3}) {
			t.Errorf("got=%v", got)
		}
	})

	t.Run("wrap", func(t *testing.T) {
		rb := RingN[int16](4)
		rb.Write([]int16{1, 2, 3})
		rb.Write([]int16{4, 5, 6})
		if got := rb.Bytes(); !slices.Equal(got, []int16{3, 4, 5, 6}) {
			t.Errorf("got=%v", got)
		}
		rb.Add(7)
		if got := rb.Bytes(); !slices.Equal(got, []int16{4, 5, 6, 7}) {
			t.Errorf("got=%v", got)
		}
	})
}

func TestRingBufferBytesIsCopy(t *testing.T) {
	rb := RingN[byte](4)
	rb.Write([]byte{1, 2, 3, 4})
	got := rb.Bytes()
	got[0] = 99
	if again := rb.Bytes(); again[0] != 1 {
		t.Errorf("Bytes aliases internal storage: %v", again)
	}
}

func TestRingBufferLatest(t *testing.T) {
	rb := RingN[int16](8)

	dst := make([]int16, 4)
	if n := rb.Latest(dst); n != 0 {
		t.Fatalf("empty Latest=%d", n)
	}

	rb.Write([]int16{1, 2})
	dst = []int16{9, 9, 9, 9}
	if n := rb.Latest(dst); n != 2 {
		t.Fatalf("Latest=%d, want 2", n)
	}
	if !slices.Equal(dst, []int16{0, 0, 1, 2}) {
		t.Errorf("dst=%v", dst)
	}

	rb.Write([]int16{3, 4, 5, 6, 7, 8, 9, 10})
	if n := rb.Latest(dst); n != 4 {
		t.Fatalf("Latest=%d, want 4", n)
	}
	if !slices.Equal(dst, []int16{7, 8, 9, 10}) {
		t.Errorf("dst=%v", dst)
	}
	if rb.Len() != 8 {
		t.Errorf("Latest consumed data, len=%d", rb.Len())
	}
}

func TestRingBufferReset(t *testing.T) {
	rb := RingN[byte](3)
	rb.Write([]byte{1, 2, 3})
	rb.Reset()
	if rb.Len() != 0 {
		t.Errorf("len=%d after reset", rb.Len())
	}
	rb.Write([]byte{4})
	if got := rb.Bytes(); !slices.Equal(got, []byte{4}) {
		t.Errorf("got=%v", got)
	}
}

func TestRingBufferConcurrent(t *testing.T) {
	rb := RingN[int16](256)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		chunk := make([]int16, 100)
		for i := 0; i < 1000; i++ {
			rb.Write(chunk)
		}
	}()
	go func() {
		defer wg.Done()
		dst := make([]int16, 256)
		for i := 0; i < 1000; i++ {
			rb.Latest(dst)
		}
	}()
	wg.Wait()
	if rb.Len() != 256 {
		t.Errorf("len=%d", rb.Len())
	}
}
