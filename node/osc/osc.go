// Package osc provides the oscillator nodes: sine, sawtooth, and
// triangle. All oscillators share the same parameter surface (frequency,
// phase offset, amplitude; the sawtooth adds a direction switch) and a
// reset_phase input event that snaps the phase accumulator back to the
// configured offset.
package osc

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// Parameter and event identifiers shared by the oscillator nodes.
var (
	IDFrequency   = ident.New("frequency")
	IDPhaseOffset = ident.New("phase_offset")
	IDAmplitude   = ident.New("amplitude")
	IDDirection   = ident.New("direction")
	IDResetPhase  = ident.New("reset_phase")
)

const twoPi = 2 * math.Pi

// common carries the oscillator state shared by all three waveforms.
type common struct {
	node.Base

	phase      float64 // radians for sine, normalized [0,1) otherwise
	resetPhase event.Flag
}

// setup must run on the oscillator's final address so the reset flag
// wired into the input event stays valid.
func (c *common) setup(defaultAmp float64) error {
	c.Base = node.NewBase()

	p := c.Params()
	if err := p.AddInterpolatedFloat(IDFrequency, "frequency", 440); err != nil {
		return err
	}

	if err := p.AddInterpolatedFloat(IDPhaseOffset, "phase_offset", 0); err != nil {
		return err
	}

	if err := p.AddInterpolatedFloat(IDAmplitude, "amplitude", defaultAmp); err != nil {
		return err
	}

	return c.AddInEvent(IDResetPhase, event.NewInput(event.FlagTrigger(&c.resetPhase)))
}

func (c *common) initialize(sampleRate float64, maxBlock int) error {
	if err := c.Configure(sampleRate, maxBlock); err != nil {
		return err
	}

	// Frequency is only meaningful below Nyquist.
	return c.Params().SetRange(IDFrequency, 0, sampleRate/2)
}

// Reset zeros the phase accumulator.
func (c *common) Reset() {
	c.phase = 0
	c.resetPhase.CheckAndResetIfDirty()
}

// StreamInputs returns no ports; oscillators are pure sources.
func (c *common) StreamInputs() []string { return nil }

// StreamOutputs returns the single mono output port.
func (c *common) StreamOutputs() []string { return []string{"out"} }

func outChannel(out [][]float32) []float32 {
	if len(out) == 0 {
		return nil
	}

	return out[0]
}
