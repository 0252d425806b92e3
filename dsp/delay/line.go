// Package delay provides a fixed-size circular delay line, used for the
// compressor lookahead path.
package delay

import (
	"fmt"

	"github.com/cwbudde/algo-soundgraph/dsp/interp"
)

// Line is a circular delay line. Read(0) returns the most recently
// written sample; Read(k) the sample written k calls earlier.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line holding size samples. The maximum usable
// integer delay is size-1.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay: size must be > 0: %d", size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the internal buffer size.
func (d *Line) Len() int { return len(d.buffer) }

// Write pushes one sample.
func (d *Line) Write(sample float64) {
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}

	d.buffer[d.writePos] = sample
}

// Read returns the sample written delay calls ago. Out-of-range delays
// clamp to the line length.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if delay < 0 {
		delay = 0
	}

	if delay >= size {
		delay = size - 1
	}

	pos := d.writePos - delay
	if pos < 0 {
		pos += size
	}

	return d.buffer[pos]
}

// ReadFractional reads at a non-integer delay with cubic Hermite
// interpolation. Integer delays read exact samples.
func (d *Line) ReadFractional(delay float64) float64 {
	if delay < 0 {
		delay = 0
	}

	maxDelay := float64(len(d.buffer) - 3)
	if maxDelay < 1 {
		return d.Read(int(delay))
	}

	if delay > maxDelay {
		delay = maxDelay
	}

	p := int(delay)

	t := delay - float64(p)
	if t == 0 {
		return d.Read(p)
	}

	// Hermite interpolates between taps p and p+1; larger delay is older,
	// so the neighbor order runs from p-1 (newer) to p+2 (older).
	return interp.Hermite4(t, d.Read(maxInt(p-1, 0)), d.Read(p), d.Read(p+1), d.Read(p+2))
}

// Reset clears the line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
