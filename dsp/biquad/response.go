package biquad

import (
	"math"
	"math/cmplx"
)

// MagnitudeAt evaluates the magnitude response |H(e^jw)| of c at the
// given frequency in Hz.
func MagnitudeAt(c Coefficients, freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := complex(1, 0) + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2

	return cmplx.Abs(num / den)
}

// DCGain evaluates the response at 0 Hz.
func DCGain(c Coefficients) float64 {
	return (c.B0 + c.B1 + c.B2) / (1 + c.A1 + c.A2)
}
