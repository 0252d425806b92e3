package osc

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/ident"
)

// TypeSine identifies the sine oscillator node type.
var TypeSine = ident.New("osc.sine")

// Sine generates sin(phase + phase_offset) * amplitude using a radian
// phase accumulator wrapped to [0, 2π).
type Sine struct {
	common
}

// NewSine returns a sine oscillator with frequency 440 Hz, zero phase
// offset and unit amplitude.
func NewSine() (*Sine, error) {
	s := &Sine{}
	if err := s.setup(1); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sine) TypeID() ident.ID { return TypeSine }

func (s *Sine) DisplayName() string { return "Sine Oscillator" }

// Initialize configures the sample rate and clamps frequency to Nyquist.
func (s *Sine) Initialize(sampleRate float64, maxBlock int) error {
	return s.initialize(sampleRate, maxBlock)
}

// Process renders one block. Parameter ramps advance per sample so
// frequency sweeps stay click free.
func (s *Sine) Process(in, out [][]float32, n int) {
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
	step := twoPi / s.SampleRate()

	for i := 0; i < n; i++ {
		p.Advance()

		freq := p.GetFloat(IDFrequency, 440)
		offset := p.GetFloat(IDPhaseOffset, 0)
		amp := p.GetFloat(IDAmplitude, 1)

		if dst != nil {
			dst[i] = float32(math.Sin(s.phase+offset) * amp)
		}

		s.phase += step * freq
		if s.phase >= twoPi {
			s.phase -= twoPi
		}
	}
}

func zero(dst []float32, n int) {
	for i := 0; i < n && i < len(dst); i++ {
		dst[i] = 0
	}
}
