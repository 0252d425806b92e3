package osc

import (
	"github.com/cwbudde/algo-soundgraph/ident"
)

// TypeTriangle identifies the triangle oscillator node type.
var TypeTriangle = ident.New("osc.triangle")

// Triangle generates a symmetric triangle wave in [-1, 1] from a
// normalized phase accumulator.
type Triangle struct {
	common
}

// NewTriangle returns a triangle oscillator with frequency 440 Hz and
// unit amplitude.
func NewTriangle() (*Triangle, error) {
	t := &Triangle{}
	if err := t.setup(1); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Triangle) TypeID() ident.ID { return TypeTriangle }

func (t *Triangle) DisplayName() string { return "Triangle Oscillator" }

// Initialize configures the sample rate and clamps frequency to Nyquist.
func (t *Triangle) Initialize(sampleRate float64, maxBlock int) error {
	return t.initialize(sampleRate, maxBlock)
}

func (t *Triangle) Process(in, out [][]float32, n int) {
	_ = in

	dst := outChannel(out)
	if !t.Ready() {
		zero(dst, n)
		return
	}

	if t.resetPhase.CheckAndResetIfDirty() {
		t.phase = 0
	}

	p := t.Params()
	invSR := 1 / t.SampleRate()

	for i := 0; i < n; i++ {
		p.Advance()

		freq := p.GetFloat(IDFrequency, 440)
		offset := p.GetFloat(IDPhaseOffset, 0)
		amp := p.GetFloat(IDAmplitude, 1)

		if dst != nil {
			norm := frac(t.phase + offset/twoPi)
			if norm < 0.5 {
				dst[i] = float32((4*norm - 1) * amp)
			} else {
				dst[i] = float32((3 - 4*norm) * amp)
			}
		}

		t.phase = frac(t.phase + freq*invSR)
	}
}
