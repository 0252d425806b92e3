package core

import "math"

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Zero32 sets all values in a float32 stream buffer to 0.
func Zero32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// Fill32 sets all values in a float32 stream buffer to v.
func Fill32(buf []float32, v float32) {
	for i := range buf {
		buf[i] = v
	}
}

// EnsureLen returns a slice with the requested length, reusing buf
// capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// RMS32 returns the root-mean-square of a float32 stream buffer.
func RMS32(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}

	sum := 0.0
	for _, x := range buf {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum / float64(len(buf)))
}
