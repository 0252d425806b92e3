package conv

import (
	"errors"
	"math"
	"testing"
)

func TestDirectKnownResult(t *testing.T) {
	// [1,2,3] * [1,1] = [1,3,5,3]
	got, err := Direct([]float64{1, 2, 3}, []float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{1, 3, 5, 3}
	if len(got) != len(want) {
		t.Fatalf("length: got %d want %d", len(got), len(want))
	}

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("element %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestDirectIdentityKernel(t *testing.T) {
	x := []float64{0.5, -1, 0.25, 2}

	got, err := Direct(x, []float64{1})
	if err != nil {
		t.Fatal(err)
	}

	for i := range x {
		if got[i] != x[i] {
			t.Fatalf("identity kernel altered element %d: %v", i, got[i])
		}
	}
}

func TestDirectCommutative(t *testing.T) {
	a := []float64{1, -0.5, 0.25, 0.7, -0.1}
	b := []float64{0.3, 0.6, -0.2, 0.1, 0.05, 0.9}

	ab, err := Direct(a, b)
	if err != nil {
		t.Fatal(err)
	}

	ba, err := Direct(b, a)
	if err != nil {
		t.Fatal(err)
	}

	for i := range ab {
		if math.Abs(ab[i]-ba[i]) > 1e-12 {
			t.Fatalf("commutativity broken at %d: %v vs %v", i, ab[i], ba[i])
		}
	}
}

func TestDirectVectorizedMatchesScalar(t *testing.T) {
	// A kernel above the vectorization threshold must match the naive sum.
	x := make([]float64, 100)
	h := make([]float64, 17)

	for i := range x {
		x[i] = math.Sin(float64(i) * 0.1)
	}

	for j := range h {
		h[j] = math.Exp(-float64(j) * 0.3)
	}

	got, err := Direct(x, h)
	if err != nil {
		t.Fatal(err)
	}

	for i := range got {
		want := 0.0

		for j := range h {
			if k := i - j; k >= 0 && k < len(x) {
				want += x[k] * h[j]
			}
		}

		if math.Abs(got[i]-want) > 1e-10 {
			t.Fatalf("element %d: got %v want %v", i, got[i], want)
		}
	}
}

func TestDirectEmpty(t *testing.T) {
	if _, err := Direct(nil, []float64{1}); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	if _, err := Direct([]float64{1}, nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDirectToShortDestination(t *testing.T) {
	dst := make([]float64, 2)

	// Must be a no-op, not a panic.
	DirectTo(dst, []float64{1, 2, 3}, []float64{1, 1})

	if dst[0] != 0 || dst[1] != 0 {
		t.Fatalf("short destination modified: %v", dst)
	}
}
