// Package reverb provides the convolution node: direct time-domain
// convolution of the input against an impulse response, mixed with the
// dry signal. The impulse is either caller-provided or a generated
// default (unit tap, early reflections, exponential tail).
package reverb

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// TypeConvolution identifies the convolution reverb node type.
var TypeConvolution = ident.New("reverb.convolution")

// Parameter and event identifiers for the convolution node.
var (
	IDWetLevel    = ident.New("wet_level")
	IDDryLevel    = ident.New("dry_level")
	IDLoadImpulse = ident.New("load_impulse")
)

const (
	defaultTailSeconds = 0.05
	earlyReflections   = 6
	irSeed             = 0x5eed
)

// Convolution convolves the input with an impulse response h over a
// circular history buffer sized at ≥ max(2L, 4·max_block).
type Convolution struct {
	node.Base

	h         []float64
	defaultIR []float64

	ring    []float64
	ringPos int

	loadFlag event.Flag
}

// NewConvolution returns a convolution node with full wet and dry unity
// levels; the default impulse is installed at Initialize.
func NewConvolution() (*Convolution, error) {
	c := &Convolution{}
	c.Base = node.NewBase()

	p := c.Params()
	if err := p.AddInterpolatedFloatRange(IDWetLevel, "wet_level", 1, 0, 2); err != nil {
		return nil, err
	}

	if err := p.AddInterpolatedFloatRange(IDDryLevel, "dry_level", 1, 0, 2); err != nil {
		return nil, err
	}

	err := c.AddInEvent(IDLoadImpulse, event.NewInput(event.FlagTrigger(&c.loadFlag)))
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Convolution) TypeID() ident.ID { return TypeConvolution }

func (c *Convolution) DisplayName() string { return "Convolution Reverb" }

// Initialize generates the default impulse for the sample rate and
// sizes the history buffer.
func (c *Convolution) Initialize(sampleRate float64, maxBlock int) error {
	if err := c.Configure(sampleRate, maxBlock); err != nil {
		return err
	}

	c.defaultIR = defaultImpulse(sampleRate)
	c.h = c.defaultIR
	c.resizeRing()
	c.Reset()

	return nil
}

// SetImpulse installs a caller-provided impulse response. This is a
// graph-build operation, not safe concurrently with Process.
func (c *Convolution) SetImpulse(h []float64) error {
	if len(h) == 0 {
		return fmt.Errorf("convolution: empty impulse response")
	}

	c.h = append(c.h[:0:0], h...)

	if c.Ready() {
		c.resizeRing()
		c.Reset()
	}

	return nil
}

// Impulse returns the active impulse response.
func (c *Convolution) Impulse() []float64 { return c.h }

func (c *Convolution) resizeRing() {
	need := 2 * len(c.h)
	if alt := 4 * c.MaxBlock(); alt > need {
		need = alt
	}

	if len(c.ring) < need {
		c.ring = make([]float64, need)
	}
}

// Reset clears the input history without touching the impulse.
func (c *Convolution) Reset() {
	core.Zero(c.ring)
	c.ringPos = 0
}

func (c *Convolution) StreamInputs() []string { return []string{"in"} }

func (c *Convolution) StreamOutputs() []string { return []string{"out"} }

func (c *Convolution) Process(in, out [][]float32, n int) {
	var src, dst []float32
	if len(in) > 0 {
		src = in[0]
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

	if c.loadFlag.CheckAndResetIfDirty() {
		// Reinstall the generated default without allocating.
		c.h = c.defaultIR
		c.Reset()
	}

	p := c.Params()
	ring := c.ring
	h := c.h
	size := len(ring)

	for i := 0; i < n; i++ {
		p.Advance()

		x := float64(src[i])
		ring[c.ringPos] = x

		// y[n] = Σ h[k] · x[n−k], walking backwards through the ring.
		y := 0.0
		idx := c.ringPos

		for k := 0; k < len(h); k++ {
			y += h[k] * ring[idx]

			idx--
			if idx < 0 {
				idx = size - 1
			}
		}

		wet := p.GetFloat(IDWetLevel, 1)
		dry := p.GetFloat(IDDryLevel, 1)
		dst[i] = float32(y*wet + x*dry)

		c.ringPos++
		if c.ringPos == size {
			c.ringPos = 0
		}
	}
}

// defaultImpulse builds a deterministic room-like impulse: a unit tap,
// a handful of early reflections, and an exponentially decaying noise
// tail.
func defaultImpulse(sampleRate float64) []float64 {
	length := int(defaultTailSeconds*sampleRate + 0.5)
	if length < 8 {
		length = 8
	}

	h := make([]float64, length)
	h[0] = 1

	rng := rand.New(rand.NewSource(irSeed))

	for r := 0; r < earlyReflections; r++ {
		pos := 1 + rng.Intn(length/4)
		h[pos] += (rng.Float64()*0.5 + 0.2) * sign(rng.Float64()-0.5)
	}

	// Exponential tail reaching roughly -60 dB at the end.
	decay := math.Log(1000) / float64(length)
	for i := length / 8; i < length; i++ {
		h[i] += 0.25 * (rng.Float64()*2 - 1) * math.Exp(-decay*float64(i))
	}

	return h
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}

	return 1
}
