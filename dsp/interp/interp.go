// Package interp provides the fractional-sample interpolation primitives
// used by the wave player and delay lines.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear]:   2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite
//
// Both guarantee that integer positions read exact samples (t == 0 returns
// x0 bit-exactly).
package interp

// Linear interpolates between x0 and x1 at fraction t in [0, 1).
func Linear(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Linear32 interpolates between two float32 stream samples at fraction t.
func Linear32(t float64, x0, x1 float32) float32 {
	return float32(float64(x0) + t*(float64(x1)-float64(x0)))
}

// Hermite4 computes cubic 4-point interpolation from x0 toward x1 at
// fraction t, using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}
