// Package mix provides the utility nodes used to combine and scale
// streams: Gain, Add, Multiply, and an N-input Mixer. They double as
// graph sinks when a chain needs a single summed output.
package mix

import (
	"fmt"

	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// Parameter identifiers for the utility nodes.
var (
	IDGain = ident.New("gain")
)

// Node type identifiers.
var (
	TypeGain     = ident.New("mix.gain")
	TypeAdd      = ident.New("mix.add")
	TypeMultiply = ident.New("mix.multiply")
	TypeMixer    = ident.New("mix.mixer")
)

// Gain scales a mono stream by an interpolated gain factor.
type Gain struct {
	node.Base
}

// NewGain returns a gain node with unity gain.
func NewGain() (*Gain, error) {
	g := &Gain{Base: node.NewBase()}
	if err := g.Params().AddInterpolatedFloatRange(IDGain, "gain", 1, 0, 4); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Gain) TypeID() ident.ID { return TypeGain }

func (g *Gain) DisplayName() string { return "Gain" }

func (g *Gain) Initialize(sampleRate float64, maxBlock int) error {
	return g.Configure(sampleRate, maxBlock)
}

// Reset is a no-op: Gain holds no internal state beyond its parameters.
func (g *Gain) Reset() {}

func (g *Gain) StreamInputs() []string { return []string{"in"} }

func (g *Gain) StreamOutputs() []string { return []string{"out"} }

// Process scales the input block. The gain ramp advances per sample so
// level changes stay click free.
func (g *Gain) Process(in, out [][]float32, n int) {
	dst := channel(out, 0)
	if !g.Ready() {
		zero(dst, n)
		return
	}

	src := channel(in, 0)
	p := g.Params()

	for i := 0; i < n; i++ {
		p.Advance()

		v := float32(0)
		if i < len(src) {
			v = src[i]
		}

		if i < len(dst) {
			dst[i] = v * float32(p.GetFloat(IDGain, 1))
		}
	}
}

// Add sums two mono streams sample by sample.
type Add struct {
	node.Base
}

func NewAdd() (*Add, error) {
	return &Add{Base: node.NewBase()}, nil
}

func (a *Add) TypeID() ident.ID { return TypeAdd }

func (a *Add) DisplayName() string { return "Add" }

func (a *Add) Initialize(sampleRate float64, maxBlock int) error {
	return a.Configure(sampleRate, maxBlock)
}

// Reset is a no-op: Add holds no internal state.
func (a *Add) Reset() {}

func (a *Add) StreamInputs() []string { return []string{"a", "b"} }

func (a *Add) StreamOutputs() []string { return []string{"out"} }

func (a *Add) Process(in, out [][]float32, n int) {
	combine(a.Ready(), in, out, n, func(x, y float32) float32 { return x + y })
}

// Multiply forms the sample-wise product of two mono streams, the
// building block for ring modulation and envelope amplitude control.
type Multiply struct {
	node.Base
}

func NewMultiply() (*Multiply, error) {
	return &Multiply{Base: node.NewBase()}, nil
}

func (m *Multiply) TypeID() ident.ID { return TypeMultiply }

func (m *Multiply) DisplayName() string { return "Multiply" }

func (m *Multiply) Initialize(sampleRate float64, maxBlock int) error {
	return m.Configure(sampleRate, maxBlock)
}

// Reset is a no-op: Multiply holds no internal state.
func (m *Multiply) Reset() {}

func (m *Multiply) StreamInputs() []string { return []string{"a", "b"} }

func (m *Multiply) StreamOutputs() []string { return []string{"out"} }

func (m *Multiply) Process(in, out [][]float32, n int) {
	combine(m.Ready(), in, out, n, func(x, y float32) float32 { return x * y })
}

// Mixer sums a fixed number of mono inputs, each scaled by its own
// interpolated level parameter. Input count is set at construction.
type Mixer struct {
	node.Base

	levels []ident.ID
	names  []string
}

// NewMixer returns a mixer with numInputs inputs, all at unity level.
// Level parameters are named level_0 .. level_{n-1}.
func NewMixer(numInputs int) (*Mixer, error) {
	if numInputs < 1 {
		return nil, fmt.Errorf("mixer needs at least one input, got %d", numInputs)
	}

	m := &Mixer{
		Base:   node.NewBase(),
		levels: make([]ident.ID, numInputs),
		names:  make([]string, numInputs),
	}

	p := m.Params()
	for i := 0; i < numInputs; i++ {
		name := fmt.Sprintf("level_%d", i)
		m.names[i] = fmt.Sprintf("in_%d", i)
		m.levels[i] = ident.New(name)

		if err := p.AddInterpolatedFloatRange(m.levels[i], name, 1, 0, 4); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Mixer) TypeID() ident.ID { return TypeMixer }

func (m *Mixer) DisplayName() string { return "Mixer" }

func (m *Mixer) Initialize(sampleRate float64, maxBlock int) error {
	return m.Configure(sampleRate, maxBlock)
}

// Reset is a no-op: Mixer holds no internal state beyond its parameters.
func (m *Mixer) Reset() {}

// NumInputs reports the input count fixed at construction.
func (m *Mixer) NumInputs() int { return len(m.levels) }

// LevelID returns the parameter identifier for input i.
func (m *Mixer) LevelID(i int) ident.ID {
	if i < 0 || i >= len(m.levels) {
		return 0
	}

	return m.levels[i]
}

func (m *Mixer) StreamInputs() []string { return m.names }

func (m *Mixer) StreamOutputs() []string { return []string{"out"} }

// Process sums every connected input into the output, each through its
// own level ramp. Missing input channels contribute silence.
func (m *Mixer) Process(in, out [][]float32, n int) {
	dst := channel(out, 0)
	if !m.Ready() {
		zero(dst, n)
		return
	}

	p := m.Params()

	for i := 0; i < n; i++ {
		p.Advance()

		sum := float64(0)
		for ch, id := range m.levels {
			src := channel(in, ch)
			if i < len(src) {
				sum += float64(src[i]) * p.GetFloat(id, 1)
			}
		}

		if i < len(dst) {
			dst[i] = float32(sum)
		}
	}
}

func combine(ready bool, in, out [][]float32, n int, op func(x, y float32) float32) {
	dst := channel(out, 0)
	if !ready {
		zero(dst, n)
		return
	}

	a := channel(in, 0)
	b := channel(in, 1)

	for i := 0; i < n && i < len(dst); i++ {
		var x, y float32
		if i < len(a) {
			x = a[i]
		}

		if i < len(b) {
			y = b[i]
		}

		dst[i] = op(x, y)
	}
}

func channel(buf [][]float32, i int) []float32 {
	if i < 0 || i >= len(buf) {
		return nil
	}

	return buf[i]
}

func zero(dst []float32, n int) {
	for i := 0; i < n && i < len(dst); i++ {
		dst[i] = 0
	}
}
