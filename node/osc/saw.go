package osc

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/ident"
)

// TypeSawtooth identifies the sawtooth oscillator node type.
var TypeSawtooth = ident.New("osc.sawtooth")

// Sawtooth generates a rising (direction ≥ 0) or falling ramp in
// [-1, 1] from a normalized phase accumulator.
type Sawtooth struct {
	common
}

// NewSawtooth returns a sawtooth oscillator with frequency 440 Hz,
// rising direction and unit amplitude.
func NewSawtooth() (*Sawtooth, error) {
	s := &Sawtooth{}
	if err := s.setup(1); err != nil {
		return nil, err
	}

	if err := s.Params().AddInt(IDDirection, "direction", 1); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sawtooth) TypeID() ident.ID { return TypeSawtooth }

func (s *Sawtooth) DisplayName() string { return "Sawtooth Oscillator" }

// Initialize configures the sample rate and clamps frequency to Nyquist.
func (s *Sawtooth) Initialize(sampleRate float64, maxBlock int) error {
	return s.initialize(sampleRate, maxBlock)
}

func (s *Sawtooth) Process(in, out [][]float32, n int) {
	_ = in

	dst := outChannel(out)
	if !s.Ready() {
		zero(dst, n)
		return
	}

	if s.resetPhase.CheckAndResetIfDirty() {
		s.phase = 0
	}

	p := s.Params()
	invSR := 1 / s.SampleRate()

	for i := 0; i < n; i++ {
		p.Advance()

		freq := p.GetFloat(IDFrequency, 440)
		offset := p.GetFloat(IDPhaseOffset, 0)
		amp := p.GetFloat(IDAmplitude, 1)
		rising := p.GetInt(IDDirection, 1) >= 0

		if dst != nil {
			norm := frac(s.phase + offset/twoPi)
			if rising {
				dst[i] = float32((2*norm - 1) * amp)
			} else {
				dst[i] = float32((1 - 2*norm) * amp)
			}
		}

		s.phase = frac(s.phase + freq*invSR)
	}
}

// frac returns the fractional part of x mapped into [0, 1).
func frac(x float64) float64 {
	f := x - math.Floor(x)
	if f >= 1 { // guards against rounding at exactly 1.0
		f = 0
	}

	return f
}
