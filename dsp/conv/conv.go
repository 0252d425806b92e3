// Package conv implements linear convolution of finite signals. The
// convolution reverb node follows the same math over a circular input
// buffer; this package provides the offline reference form used to
// prepare impulse responses and to validate streaming output.
package conv

import (
	"errors"

	"github.com/cwbudde/algo-vecmath"
)

// ErrEmptyInput is returned when either operand is empty.
var ErrEmptyInput = errors.New("conv: empty input")

// Direct computes the full linear convolution of x and h.
// The result has length len(x) + len(h) - 1.
func Direct(x, h []float64) ([]float64, error) {
	if len(x) == 0 || len(h) == 0 {
		return nil, ErrEmptyInput
	}

	dst := make([]float64, len(x)+len(h)-1)
	DirectTo(dst, x, h)

	return dst, nil
}

// DirectTo convolves into a pre-allocated destination of length
// len(x) + len(h) - 1. Shorter destinations are left untouched.
func DirectTo(dst, x, h []float64) {
	n, m := len(x), len(h)
	if n == 0 || m == 0 || len(dst) < n+m-1 {
		return
	}

	for i := range dst[:n+m-1] {
		dst[i] = 0
	}

	// Vectorize across the kernel for anything non-trivial.
	const vecThreshold = 4
	if m < vecThreshold {
		for i := range n {
			for j := range m {
				dst[i+j] += x[i] * h[j]
			}
		}

		return
	}

	temp := make([]float64, m)
	for i := range n {
		vecmath.ScaleBlock(temp, h, x[i])
		vecmath.AddBlockInPlace(dst[i:i+m], temp)
	}
}
