package testutil

import (
	"math"
	"testing"
)

func TestSine32(t *testing.T) {
	s := Sine32(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	// First sample of a sine at phase 0 should be 0.
	if math.Abs(float64(s[0])) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	// All values in [-1, 1].
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestSine32Reproducible(t *testing.T) {
	a := Sine32(440, 44100, 0.5, 100)
	b := Sine32(440, 44100, 0.5, 100)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
	}
}

func TestNoise32(t *testing.T) {
	a := Noise32(42, 1.0, 64)
	b := Noise32(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
	}
}

func TestNoise32DifferentSeeds(t *testing.T) {
	a := Noise32(1, 1.0, 16)
	b := Noise32(2, 1.0, 16)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulse32(t *testing.T) {
	imp := Impulse32(8, 3)
	if len(imp) != 8 {
		t.Fatalf("len = %d, want 8", len(imp))
	}
	for i, v := range imp {
		if i == 3 {
			if v != 1 {
				t.Fatalf("imp[3] = %v, want 1", v)
			}
		} else if v != 0 {
			t.Fatalf("imp[%d] = %v, want 0", i, v)
		}
	}
}

func TestImpulse32OutOfBounds(t *testing.T) {
	imp := Impulse32(4, 10)
	for i, v := range imp {
		if v != 0 {
			t.Fatalf("imp[%d] = %v, want all zeros for out-of-bounds pos", i, v)
		}
	}
}

func TestDC32(t *testing.T) {
	d := DC32(0.5, 4)
	for i, v := range d {
		if v != 0.5 {
			t.Fatalf("DC[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestRMS32(t *testing.T) {
	if got := RMS32(nil); got != 0 {
		t.Fatalf("RMS32(nil) = %v, want 0", got)
	}

	got := RMS32(Sine32(1000, 48000, 1.0, 480))
	if math.Abs(got-1/math.Sqrt2) > 1e-3 {
		t.Fatalf("sine RMS = %v, want %v", got, 1/math.Sqrt2)
	}
}
