// Package dynamics provides the compressor node: a feed-forward
// soft-knee compressor with peak, RMS and hybrid detection, optional
// sidechain keying, and up to 10 ms of lookahead.
package dynamics

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/delay"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// TypeCompressor identifies the compressor node type.
var TypeCompressor = ident.New("dynamics.compressor")

// DetectionMode selects the level detector feeding the gain computer.
type DetectionMode int64

const (
	ModePeak DetectionMode = iota
	ModeRMS
	ModeHybrid
)

// Parameter identifiers for the compressor node.
var (
	IDThresholdDB     = ident.New("threshold_db")
	IDRatio           = ident.New("ratio")
	IDAttackMS        = ident.New("attack_ms")
	IDReleaseMS       = ident.New("release_ms")
	IDKneeDB          = ident.New("knee_db")
	IDMakeupDB        = ident.New("makeup_db")
	IDDetectionMode   = ident.New("detection_mode")
	IDLookaheadMS     = ident.New("lookahead_ms")
	IDAutoMakeup      = ident.New("auto_makeup")
	IDBypass          = ident.New("bypass")
	IDGainReductionDB = ident.New("gain_reduction_db")
	IDEnvelopeDB      = ident.New("envelope_db")
)

const (
	maxLookaheadMS = 10.0
	meterFloorDB   = -96.0
	peakDecay      = 0.999
	holdSeconds    = 0.01
	rmsSeconds     = 0.001
)

// Compressor is a mono feed-forward compressor. The second stream input
// is an optional sidechain; when connected it drives the detector while
// the main input is what gets gain-ridden.
type Compressor struct {
	node.Base

	lookahead *delay.Line
	lookSmp   int

	rmsWindow []float64 // squared samples, circular
	rmsSum    float64
	rmsPos    int

	env         float64
	peakHold    float64
	holdCounter int
	holdSamples int

	attackCoeff  float64
	releaseCoeff float64

	lastReductionDB float64
	lastEnvelopeDB  float64
}

// NewCompressor returns a compressor with threshold −20 dB, ratio 4:1,
// 10 ms attack, 100 ms release and peak detection.
func NewCompressor() (*Compressor, error) {
	c := &Compressor{lastEnvelopeDB: meterFloorDB}
	c.Base = node.NewBase()

	p := c.Params()
	for _, reg := range []error{
		p.AddFloatRange(IDThresholdDB, "threshold_db", -20, -60, 0),
		p.AddFloatRange(IDRatio, "ratio", 4, 1, 20),
		p.AddFloatRange(IDAttackMS, "attack_ms", 10, 0.1, 1000),
		p.AddFloatRange(IDReleaseMS, "release_ms", 100, 1, 10000),
		p.AddFloatRange(IDKneeDB, "knee_db", 6, 0, 40),
		p.AddFloatRange(IDMakeupDB, "makeup_db", 0, -20, 40),
		p.AddInt(IDDetectionMode, "detection_mode", int64(ModePeak)),
		p.AddFloatRange(IDLookaheadMS, "lookahead_ms", 0, 0, maxLookaheadMS),
		p.AddBool(IDAutoMakeup, "auto_makeup", false),
		p.AddBool(IDBypass, "bypass", false),
		p.AddFloat(IDGainReductionDB, "gain_reduction_db", 0),
		p.AddFloat(IDEnvelopeDB, "envelope_db", meterFloorDB),
	} {
		if reg != nil {
			return nil, reg
		}
	}

	return c, nil
}

func (c *Compressor) TypeID() ident.ID { return TypeCompressor }

func (c *Compressor) DisplayName() string { return "Compressor" }

// Initialize allocates the lookahead line at full 10 ms capacity and the
// RMS window, so Process never allocates.
func (c *Compressor) Initialize(sampleRate float64, maxBlock int) error {
	if err := c.Configure(sampleRate, maxBlock); err != nil {
		return err
	}

	maxLook := int(maxLookaheadMS*sampleRate/1000+0.5) + 1

	line, err := delay.New(maxLook)
	if err != nil {
		return err
	}

	c.lookahead = line

	rmsLen := int(rmsSeconds*sampleRate + 0.5)
	if rmsLen < 1 {
		rmsLen = 1
	}

	c.rmsWindow = make([]float64, rmsLen)
	c.holdSamples = int(holdSeconds*sampleRate + 0.5)
	c.clearState()

	return nil
}

// Reset clears all detector state and buffers.
func (c *Compressor) Reset() {
	c.clearState()
}

func (c *Compressor) clearState() {
	if c.lookahead != nil {
		c.lookahead.Reset()
	}

	core.Zero(c.rmsWindow)
	c.rmsSum = 0
	c.rmsPos = 0
	c.env = 0
	c.peakHold = 0
	c.holdCounter = 0
	c.lastReductionDB = 0
	c.lastEnvelopeDB = meterFloorDB
}

func (c *Compressor) StreamInputs() []string { return []string{"in", "sidechain"} }

func (c *Compressor) StreamOutputs() []string { return []string{"out"} }

// GainReductionDB reports the gain reduction applied to the most recent
// sample, in positive dB.
func (c *Compressor) GainReductionDB() float64 { return c.lastReductionDB }

// EnvelopeDB reports the detector envelope of the most recent sample.
func (c *Compressor) EnvelopeDB() float64 { return c.lastEnvelopeDB }

func (c *Compressor) Process(in, out [][]float32, n int) {
	var src, side, dst []float32
	if len(in) > 0 {
		src = in[0]
	}

	if len(in) > 1 {
		side = in[1]
	}

	if len(out) > 0 {
		dst = out[0]
	}

	if dst == nil {
		return
	}

	if !c.Ready() || src == nil {
		core.Zero32(dst[:n])
		return
	}

	p := c.Params()

	if p.GetBool(IDBypass, false) {
		copy(dst[:n], src[:n])
		c.lastReductionDB = 0
		c.lastEnvelopeDB = meterFloorDB
		c.publishMeters()

		return
	}

	c.refreshCoefficients()

	thr := p.GetFloat(IDThresholdDB, -20)
	ratio := p.GetFloat(IDRatio, 4)
	knee := p.GetFloat(IDKneeDB, 6)
	mode := DetectionMode(p.GetInt(IDDetectionMode, int64(ModePeak)))

	makeupDB := p.GetFloat(IDMakeupDB, 0)
	if p.GetBool(IDAutoMakeup, false) {
		makeupDB += -thr * (1 - 1/ratio)
	}

	makeup := core.DBToLinear(makeupDB)

	for i := 0; i < n; i++ {
		x := float64(src[i])

		det := x
		if side != nil {
			det = float64(side[i])
		}

		level := c.detect(math.Abs(det), mode)

		if level > c.env {
			c.env += (level - c.env) * (1 - c.attackCoeff)
		} else {
			c.env += (level - c.env) * (1 - c.releaseCoeff)
		}

		c.env = core.FlushDenormals(c.env)

		envDB := core.LinearToDBFloor(c.env, meterFloorDB)
		reduction := kneeReduction(envDB, thr, knee, ratio)
		gain := core.DBToLinear(-reduction)

		c.lookahead.Write(x)
		delayed := c.lookahead.Read(c.lookSmp)

		y := delayed * gain * makeup
		dst[i] = float32(math.Tanh(0.7*y) / 0.7)

		c.lastReductionDB = reduction
		c.lastEnvelopeDB = envDB
	}

	c.publishMeters()
}

// refreshCoefficients recomputes the one-pole time constants and the
// lookahead tap at block rate.
func (c *Compressor) refreshCoefficients() {
	p := c.Params()
	sr := c.SampleRate()

	attack := p.GetFloat(IDAttackMS, 10) / 1000
	release := p.GetFloat(IDReleaseMS, 100) / 1000

	c.attackCoeff = math.Exp(-1 / (attack * sr))
	c.releaseCoeff = math.Exp(-1 / (release * sr))

	look := int(p.GetFloat(IDLookaheadMS, 0)*sr/1000 + 0.5)
	c.lookSmp = core.ClampInt(look, 0, c.lookahead.Len()-1)
}

// detect runs the per-mode level detector for one rectified sample.
func (c *Compressor) detect(absX float64, mode DetectionMode) float64 {
	// Peak with hold and multiplicative decay.
	if absX > c.peakHold {
		c.peakHold = absX
		c.holdCounter = c.holdSamples
	} else if c.holdCounter > 0 {
		c.holdCounter--
	} else {
		c.peakHold *= peakDecay
	}

	// Sliding mean square over the RMS window.
	sq := absX * absX
	c.rmsSum += sq - c.rmsWindow[c.rmsPos]
	c.rmsWindow[c.rmsPos] = sq

	c.rmsPos++
	if c.rmsPos == len(c.rmsWindow) {
		c.rmsPos = 0
	}

	if c.rmsSum < 0 { // rounding guard
		c.rmsSum = 0
	}

	rms := math.Sqrt(c.rmsSum / float64(len(c.rmsWindow)))

	switch mode {
	case ModeRMS:
		return rms
	case ModeHybrid:
		return math.Max(c.peakHold, rms)
	default:
		return c.peakHold
	}
}

// kneeReduction computes the gain reduction in dB for a detector level
// inDB against threshold thr with soft knee width and the given ratio.
// The quadratic knee segment is C¹-continuous at both edges.
func kneeReduction(inDB, thr, knee, ratio float64) float64 {
	over := inDB - thr
	slope := 1 - 1/ratio

	switch {
	case over <= -knee/2:
		return 0
	case over >= knee/2:
		return over * slope
	default:
		x := over + knee/2
		return slope * x * x / (2 * knee)
	}
}

func (c *Compressor) publishMeters() {
	p := c.Params()
	_ = p.SetFloat(IDGainReductionDB, c.lastReductionDB, false)
	_ = p.SetFloat(IDEnvelopeDB, c.lastEnvelopeDB, false)
}
