// Package testutil generates deterministic test signals in the float32
// stream format the graph nodes process.
package testutil

import (
	"math"
	"math/rand"
)

// Sine32 generates a sine block at freqHz starting from zero phase.
func Sine32(freqHz, sampleRate, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = float32(amplitude * math.Sin(step*float64(i)))
	}
	return out
}

// Noise32 generates white noise with a fixed seed for reproducibility.
func Noise32(seed int64, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

// Impulse32 generates a unit impulse at the given position.
func Impulse32(length, pos int) []float32 {
	out := make([]float32, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC32 generates a constant-valued block.
func DC32(value float32, length int) []float32 {
	out := make([]float32, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// RMS32 returns the root-mean-square level of a block (0 when empty).
func RMS32(block []float32) float64 {
	if len(block) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range block {
		sum += float64(v) * float64(v)
	}

	return math.Sqrt(sum / float64(len(block)))
}
