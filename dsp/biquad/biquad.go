// Package biquad implements second-order IIR filter sections and the
// coefficient derivations used by the sound graph filter nodes.
//
// Sections run in direct form I:
//
//	y[n] = b0*x[n] + b1*x[n-1] + b2*x[n-2] - a1*y[n-1] - a2*y[n-2]
//
// with all coefficients normalized by a0.
package biquad

import "math"

// Coefficients holds the transfer function coefficients of a single
// biquad, normalized so a0 == 1.
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Section is a single biquad filter with coefficients and the four
// direct-form-I delay memories.
type Section struct {
	Coefficients

	x1, x2 float64 // previous inputs
	y1, y2 float64 // previous outputs
}

// NewSection returns a Section with the given coefficients and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.B1*s.x1 + s.B2*s.x2 - s.A1*s.y1 - s.A2*s.y2

	s.x2 = s.x1
	s.x1 = x
	s.y2 = s.y1
	s.y1 = flushDenormal(y)

	return y
}

// ProcessBlock32 filters a float32 stream buffer in-place. Zero-alloc.
func (s *Section) ProcessBlock32(buf []float32) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	x1, x2 := s.x1, s.x2
	y1, y2 := s.y1, s.y2

	for i, v := range buf {
		x := float64(v)
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2

		x2 = x1
		x1 = x
		y2 = y1
		y1 = flushDenormal(y)

		buf[i] = float32(y)
	}

	s.x1, s.x2 = x1, x2
	s.y1, s.y2 = y1, y2
}

// Reset zeros the two previous-input and two previous-output memories.
func (s *Section) Reset() {
	s.x1, s.x2 = 0, 0
	s.y1, s.y2 = 0, 0
}

func flushDenormal(x float64) float64 {
	const tiny = 1e-30
	if x > -tiny && x < tiny {
		return 0
	}

	return x
}

// LowPass derives lowpass coefficients for cutoff freq (Hz) and quality q
// at the given sample rate.
func LowPass(freq, q, sampleRate float64) Coefficients {
	alpha, cosW := prewarp(freq, q, sampleRate)

	b1 := 1 - cosW

	return normalize(b1/2, b1, b1/2, 1+alpha, -2*cosW, 1-alpha)
}

// HighPass derives highpass coefficients.
func HighPass(freq, q, sampleRate float64) Coefficients {
	alpha, cosW := prewarp(freq, q, sampleRate)

	b0 := (1 + cosW) / 2

	return normalize(b0, -(1 + cosW), b0, 1+alpha, -2*cosW, 1-alpha)
}

// BandPass derives constant-skirt bandpass coefficients.
func BandPass(freq, q, sampleRate float64) Coefficients {
	alpha, cosW := prewarp(freq, q, sampleRate)

	return normalize(alpha, 0, -alpha, 1+alpha, -2*cosW, 1-alpha)
}

// Notch derives band-reject coefficients.
func Notch(freq, q, sampleRate float64) Coefficients {
	alpha, cosW := prewarp(freq, q, sampleRate)

	return normalize(1, -2*cosW, 1, 1+alpha, -2*cosW, 1-alpha)
}

// AllPass derives allpass coefficients (unity magnitude, phase rotation).
func AllPass(freq, q, sampleRate float64) Coefficients {
	alpha, cosW := prewarp(freq, q, sampleRate)

	return normalize(1-alpha, -2*cosW, 1+alpha, 1+alpha, -2*cosW, 1-alpha)
}

func prewarp(freq, q, sampleRate float64) (alpha, cosW float64) {
	w := 2 * math.Pi * freq / sampleRate

	return math.Sin(w) / (2 * q), math.Cos(w)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	inv := 1 / a0

	return Coefficients{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}
