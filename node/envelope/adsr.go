package envelope

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// TypeADSR identifies the ADSR envelope node type.
var TypeADSR = ident.New("envelope.adsr")

// ADSR is a gate-driven attack/decay/sustain/release envelope. A
// non-zero note_on payload opens the gate, a non-zero note_off payload
// closes it; the sustain stage holds until the gate closes.
type ADSR struct {
	node.Base

	stage   Stage
	pos     int
	length  int
	start   float64
	current float64

	velocity   float64
	pendingVel event.AtomicF64
	pendingOff event.AtomicF64
	noteOn     event.Flag
	noteOff    event.Flag
}

// NewADSR returns an ADSR envelope with 10 ms attack, 100 ms decay,
// sustain 0.7 and 200 ms release.
func NewADSR() (*ADSR, error) {
	e := &ADSR{Base: node.NewBase(), velocity: 1}

	p := e.Params()
	for _, reg := range []error{
		p.AddFloatRange(IDAttackTime, "attack_time", 0.01, minStageTime, maxStageTime),
		p.AddFloatRange(IDDecayTime, "decay_time", 0.1, minStageTime, maxStageTime),
		p.AddFloatRange(IDSustainLevel, "sustain_level", 0.7, 0, 1),
		p.AddFloatRange(IDReleaseTime, "release_time", 0.2, minStageTime, maxStageTime),
		p.AddFloatRange(IDAttackCurve, "attack_curve", 1, minCurve, maxCurve),
		p.AddFloatRange(IDDecayCurve, "decay_curve", 1, minCurve, maxCurve),
		p.AddFloatRange(IDReleaseCurve, "release_curve", 1, minCurve, maxCurve),
		p.AddFloatRange(IDPeak, "peak", 1, 0, 1),
	} {
		if reg != nil {
			return nil, reg
		}
	}

	err := e.AddInEvent(IDNoteOn, event.NewInput(velocitySetter(&e.pendingVel, &e.noteOn)))
	if err != nil {
		return nil, err
	}

	err = e.AddInEvent(IDNoteOff, event.NewInput(velocitySetter(&e.pendingOff, &e.noteOff)))
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (e *ADSR) TypeID() ident.ID { return TypeADSR }

func (e *ADSR) DisplayName() string { return "ADSR Envelope" }

func (e *ADSR) Initialize(sampleRate float64, maxBlock int) error {
	return e.Configure(sampleRate, maxBlock)
}

// Stage reports the current state machine stage.
func (e *ADSR) Stage() Stage { return e.stage }

// Value reports the most recently emitted envelope value.
func (e *ADSR) Value() float64 { return e.current }

// Reset returns the envelope to idle without touching parameters.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.pos = 0
	e.length = 0
	e.start = 0
	e.current = 0
	e.noteOn.CheckAndResetIfDirty()
	e.noteOff.CheckAndResetIfDirty()
}

func (e *ADSR) StreamInputs() []string { return nil }

func (e *ADSR) StreamOutputs() []string { return []string{"out"} }

func (e *ADSR) Process(in, out [][]float32, n int) {
	_ = in

	dst := outChannel(out)
	if !e.Ready() {
		zero(dst, n)
		return
	}

	e.consumeEvents()

	p := e.Params()
	for i := 0; i < n; i++ {
		p.Advance()

		v := e.tick()
		if dst != nil {
			dst[i] = float32(v)
		}
	}
}

func (e *ADSR) consumeEvents() {
	if e.noteOn.CheckAndResetIfDirty() {
		// Zero velocity is not a gate.
		if vel := e.pendingVel.Load(); vel != 0 {
			e.velocity = clamp01(vel)
			e.enterAttack()
		}
	}

	if e.noteOff.CheckAndResetIfDirty() && e.pendingOff.Load() != 0 {
		if e.stage != StageIdle && e.stage != StageRelease {
			e.enterRelease()
		}
	}
}

func (e *ADSR) enterAttack() {
	e.start = e.current
	e.stage = StageAttack
	e.pos = 0
	e.length = stageSamples(e.Params().GetFloat(IDAttackTime, 0.01), e.SampleRate())
}

func (e *ADSR) enterDecay() {
	e.stage = StageDecay
	e.pos = 0
	e.length = stageSamples(e.Params().GetFloat(IDDecayTime, 0.1), e.SampleRate())
}

func (e *ADSR) enterRelease() {
	e.start = e.current
	e.stage = StageRelease
	e.pos = 0
	e.length = stageSamples(e.Params().GetFloat(IDReleaseTime, 0.2), e.SampleRate())
}

func (e *ADSR) sustainValue() float64 {
	p := e.Params()
	return p.GetFloat(IDSustainLevel, 0.7) * p.GetFloat(IDPeak, 1) * e.velocity
}

// tick emits one sample and advances the state machine. Transitions
// never rewrite the sample already computed for this tick.
func (e *ADSR) tick() float64 {
	p := e.Params()

	switch e.stage {
	case StageAttack:
		target := p.GetFloat(IDPeak, 1) * e.velocity
		curve := p.GetFloat(IDAttackCurve, 1)
		progress := float64(e.pos) / float64(e.length)
		v := e.start + (target-e.start)*math.Pow(progress, 1/curve)
		e.current = v

		e.pos++
		if e.pos >= e.length {
			e.current = target
			e.enterDecay()
		}

		return v

	case StageDecay:
		peak := p.GetFloat(IDPeak, 1)
		curve := p.GetFloat(IDDecayCurve, 1)
		progress := float64(e.pos) / float64(e.length)
		v := peak - (peak-e.sustainValue())*math.Pow(progress, curve)
		e.current = v

		e.pos++
		if e.pos >= e.length {
			e.stage = StageSustain
			e.current = e.sustainValue()
		}

		return v

	case StageSustain:
		e.current = e.sustainValue()
		return e.current

	case StageRelease:
		curve := p.GetFloat(IDReleaseCurve, 1)
		progress := float64(e.pos) / float64(e.length)
		v := e.start * (1 - math.Pow(progress, curve))
		e.current = v

		e.pos++
		if e.pos >= e.length {
			e.stage = StageIdle
			e.current = 0
		}

		return v

	default:
		e.current = 0
		return 0
	}
}
