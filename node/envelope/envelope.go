// Package envelope provides the AR and ADSR envelope generator nodes.
// Both are sample-count driven state machines gated by note_on/note_off
// input events; the output is a unipolar control signal in [0, 1].
package envelope

import (
	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/value"
)

// Stage enumerates the envelope state machine states.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Parameter and event identifiers shared by the envelope nodes.
var (
	IDAttackTime   = ident.New("attack_time")
	IDDecayTime    = ident.New("decay_time")
	IDSustainLevel = ident.New("sustain_level")
	IDReleaseTime  = ident.New("release_time")
	IDAttackCurve  = ident.New("attack_curve")
	IDDecayCurve   = ident.New("decay_curve")
	IDReleaseCurve = ident.New("release_curve")
	IDPeak         = ident.New("peak")
	IDRetrigger    = ident.New("retrigger")
	IDNoteOn       = ident.New("note_on")
	IDNoteOff      = ident.New("note_off")
	IDCompleted    = ident.New("completed")
)

const (
	minStageTime = 0.001
	maxStageTime = 10.0
	minCurve     = 0.1
	maxCurve     = 10.0
)

// velocitySetter stores the payload velocity and marks the flag. A void
// payload (bare trigger) counts as full velocity.
func velocitySetter(dst *event.AtomicF64, f *event.Flag) event.Callback {
	return func(p value.Value) {
		v, ok := p.Numeric()
		if !ok {
			v = 1
		}

		dst.Store(v)
		f.SetDirty()
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

// stageSamples converts a stage time in seconds to a sample count ≥ 1.
func stageSamples(seconds, sampleRate float64) int {
	n := int(seconds*sampleRate + 0.5)
	if n < 1 {
		n = 1
	}

	return n
}

func outChannel(out [][]float32) []float32 {
	if len(out) == 0 {
		return nil
	}

	return out[0]
}

func zero(dst []float32, n int) {
	for i := 0; i < n && i < len(dst); i++ {
		dst[i] = 0
	}
}
