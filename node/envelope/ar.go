package envelope

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
	"github.com/cwbudde/algo-soundgraph/value"
)

// TypeAR identifies the attack/release envelope node type.
var TypeAR = ident.New("envelope.ar")

// AR is a one-shot attack/release envelope: note_on starts the attack,
// the release follows automatically, and the completed output event
// fires once when the release finishes.
type AR struct {
	node.Base

	stage   Stage
	pos     int
	length  int
	start   float64
	current float64

	velocity   float64
	pendingVel event.AtomicF64
	noteOn     event.Flag
	noteOff    event.Flag

	completed *event.OutputEvent

	// preallocated payload so Process stays allocation free
	donePayload value.Value
}

// NewAR returns an AR envelope with 10 ms attack, 100 ms release,
// linear curves and retrigger enabled.
func NewAR() (*AR, error) {
	e := &AR{Base: node.NewBase(), velocity: 1, donePayload: value.Bool(true)}

	p := e.Params()
	for _, reg := range []error{
		p.AddFloatRange(IDAttackTime, "attack_time", 0.01, minStageTime, maxStageTime),
		p.AddFloatRange(IDReleaseTime, "release_time", 0.1, minStageTime, maxStageTime),
		p.AddFloatRange(IDAttackCurve, "attack_curve", 1, minCurve, maxCurve),
		p.AddFloatRange(IDReleaseCurve, "release_curve", 1, minCurve, maxCurve),
		p.AddFloatRange(IDPeak, "peak", 1, 0, 1),
		p.AddBool(IDRetrigger, "retrigger", true),
	} {
		if reg != nil {
			return nil, reg
		}
	}

	err := e.AddInEvent(IDNoteOn, event.NewInput(velocitySetter(&e.pendingVel, &e.noteOn)))
	if err != nil {
		return nil, err
	}

	if err := e.AddInEvent(IDNoteOff, event.NewInput(event.FlagTrigger(&e.noteOff))); err != nil {
		return nil, err
	}

	e.completed, err = e.AddOutEvent(IDCompleted)
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (e *AR) TypeID() ident.ID { return TypeAR }

func (e *AR) DisplayName() string { return "AR Envelope" }

func (e *AR) Initialize(sampleRate float64, maxBlock int) error {
	return e.Configure(sampleRate, maxBlock)
}

// Stage reports the current state machine stage.
func (e *AR) Stage() Stage { return e.stage }

// Value reports the most recently emitted envelope value.
func (e *AR) Value() float64 { return e.current }

// Reset returns the envelope to idle without touching parameters.
func (e *AR) Reset() {
	e.stage = StageIdle
	e.pos = 0
	e.length = 0
	e.start = 0
	e.current = 0
	e.noteOn.CheckAndResetIfDirty()
	e.noteOff.CheckAndResetIfDirty()
}

func (e *AR) StreamInputs() []string { return nil }

func (e *AR) StreamOutputs() []string { return []string{"out"} }

func (e *AR) Process(in, out [][]float32, n int) {
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

func (e *AR) consumeEvents() {
	if e.noteOn.CheckAndResetIfDirty() {
		if e.stage == StageIdle || e.Params().GetBool(IDRetrigger, true) {
			e.velocity = clamp01(e.pendingVel.Load())
			e.enterAttack()
		}
	}

	if e.noteOff.CheckAndResetIfDirty() && e.stage == StageAttack {
		e.enterRelease()
	}
}

func (e *AR) enterAttack() {
	e.start = e.current // smooth retrigger from wherever we are
	e.stage = StageAttack
	e.pos = 0
	e.length = stageSamples(e.Params().GetFloat(IDAttackTime, 0.01), e.SampleRate())
}

func (e *AR) enterRelease() {
	e.enterReleaseFrom(e.current)
}

func (e *AR) enterReleaseFrom(start float64) {
	e.start = start
	e.stage = StageRelease
	e.pos = 0
	e.length = stageSamples(e.Params().GetFloat(IDReleaseTime, 0.1), e.SampleRate())
}

// tick emits one sample and advances the state machine. Transitions
// never rewrite the sample already computed for this tick.
func (e *AR) tick() float64 {
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
			e.enterReleaseFrom(target)
		}

		return v

	case StageRelease:
		curve := p.GetFloat(IDReleaseCurve, 1)
		progress := float64(e.pos) / float64(e.length)
		v := e.start * (1 - math.Pow(progress, curve))
		e.current = v

		e.pos++
		if e.pos >= e.length {
			e.stage = StageIdle
			e.completed.Invoke(e.donePayload)
		}

		return v

	default:
		e.current = 0
		return 0
	}
}
