// Package filter provides the biquad filter nodes: low-pass, high-pass,
// band-pass, notch and all-pass. All five share one implementation that
// differs only in the coefficient derivation; coefficients are
// recomputed at block rate whenever cutoff, resonance or bandwidth
// moved.
package filter

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/biquad"
	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// Shape selects the filter response.
type Shape int

const (
	ShapeLowPass Shape = iota
	ShapeHighPass
	ShapeBandPass
	ShapeNotch
	ShapeAllPass
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeLowPass:
		return "lowpass"
	case ShapeHighPass:
		return "highpass"
	case ShapeBandPass:
		return "bandpass"
	case ShapeNotch:
		return "notch"
	case ShapeAllPass:
		return "allpass"
	default:
		return "unknown"
	}
}

// Parameter identifiers shared by the filter nodes.
var (
	IDCutoff    = ident.New("cutoff")
	IDResonance = ident.New("resonance")
	IDBandwidth = ident.New("bandwidth")
)

var shapeTypes = map[Shape]ident.ID{
	ShapeLowPass:  ident.New("filter.lowpass"),
	ShapeHighPass: ident.New("filter.highpass"),
	ShapeBandPass: ident.New("filter.bandpass"),
	ShapeNotch:    ident.New("filter.notch"),
	ShapeAllPass:  ident.New("filter.allpass"),
}

var shapeNames = map[Shape]string{
	ShapeLowPass:  "LowPass Filter",
	ShapeHighPass: "HighPass Filter",
	ShapeBandPass: "BandPass Filter",
	ShapeNotch:    "Notch Filter",
	ShapeAllPass:  "AllPass Filter",
}

const (
	minQ         = 0.1
	maxQ         = 10
	maxEffective = 30
)

// Filter is a mono biquad filter node. Band-pass and notch expose a
// bandwidth parameter that combines with resonance into the effective Q.
type Filter struct {
	node.Base

	shape   Shape
	section *biquad.Section

	// cached coefficient inputs, NaN forces a recompute
	lastCutoff    float64
	lastResonance float64
	lastBandwidth float64
}

// NewLowPass returns a low-pass filter node at 1 kHz, Q = 1/√2.
func NewLowPass() (*Filter, error) { return newFilter(ShapeLowPass) }

// NewHighPass returns a high-pass filter node at 1 kHz, Q = 1/√2.
func NewHighPass() (*Filter, error) { return newFilter(ShapeHighPass) }

// NewBandPass returns a band-pass filter node centered at 1 kHz.
func NewBandPass() (*Filter, error) { return newFilter(ShapeBandPass) }

// NewNotch returns a notch filter node centered at 1 kHz.
func NewNotch() (*Filter, error) { return newFilter(ShapeNotch) }

// NewAllPass returns an all-pass filter node at 1 kHz.
func NewAllPass() (*Filter, error) { return newFilter(ShapeAllPass) }

func newFilter(shape Shape) (*Filter, error) {
	f := &Filter{
		Base:    node.NewBase(),
		shape:   shape,
		section: biquad.NewSection(biquad.Coefficients{}),
	}
	f.invalidate()

	p := f.Params()
	if err := p.AddInterpolatedFloat(IDCutoff, "cutoff", 1000); err != nil {
		return nil, err
	}

	err := p.AddInterpolatedFloatRange(IDResonance, "resonance", math.Sqrt2/2, minQ, maxQ)
	if err != nil {
		return nil, err
	}

	if f.hasBandwidth() {
		if err := p.AddInterpolatedFloat(IDBandwidth, "bandwidth", 100); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func (f *Filter) hasBandwidth() bool {
	return f.shape == ShapeBandPass || f.shape == ShapeNotch
}

func (f *Filter) invalidate() {
	f.lastCutoff = math.NaN()
	f.lastResonance = math.NaN()
	f.lastBandwidth = math.NaN()
}

func (f *Filter) TypeID() ident.ID { return shapeTypes[f.shape] }

func (f *Filter) DisplayName() string { return shapeNames[f.shape] }

// Shape reports the filter response type.
func (f *Filter) Shape() Shape { return f.shape }

// Initialize sets the sample rate and tightens the frequency parameter
// ranges against it.
func (f *Filter) Initialize(sampleRate float64, maxBlock int) error {
	if err := f.Configure(sampleRate, maxBlock); err != nil {
		return err
	}

	p := f.Params()
	if err := p.SetRange(IDCutoff, 20, 0.45*sampleRate); err != nil {
		return err
	}

	if f.hasBandwidth() {
		if err := p.SetRange(IDBandwidth, 1, 0.45*sampleRate); err != nil {
			return err
		}
	}

	f.invalidate()
	f.section.Reset()

	return nil
}

// Reset zeros the biquad delay memories without touching parameters.
func (f *Filter) Reset() {
	f.section.Reset()
}

func (f *Filter) StreamInputs() []string { return []string{"in"} }

func (f *Filter) StreamOutputs() []string { return []string{"out"} }

// Coefficients returns the active normalized biquad coefficients.
func (f *Filter) Coefficients() biquad.Coefficients {
	f.refresh()
	return f.section.Coefficients
}

// refresh recomputes coefficients when cutoff, resonance or bandwidth
// changed since the last block.
func (f *Filter) refresh() {
	p := f.Params()
	cutoff := p.GetFloat(IDCutoff, 1000)
	resonance := p.GetFloat(IDResonance, math.Sqrt2/2)

	bandwidth := 0.0
	if f.hasBandwidth() {
		bandwidth = p.GetFloat(IDBandwidth, 100)
	}

	if cutoff == f.lastCutoff && resonance == f.lastResonance && bandwidth == f.lastBandwidth {
		return
	}

	f.lastCutoff = cutoff
	f.lastResonance = resonance
	f.lastBandwidth = bandwidth
	f.section.Coefficients = f.derive(cutoff, resonance, bandwidth)
}

func (f *Filter) derive(cutoff, resonance, bandwidth float64) biquad.Coefficients {
	sr := f.SampleRate()

	switch f.shape {
	case ShapeLowPass:
		return biquad.LowPass(cutoff, resonance, sr)
	case ShapeHighPass:
		return biquad.HighPass(cutoff, resonance, sr)
	case ShapeBandPass:
		return biquad.BandPass(cutoff, effectiveQ(cutoff, bandwidth, resonance), sr)
	case ShapeNotch:
		return biquad.Notch(cutoff, effectiveQ(cutoff, bandwidth, resonance), sr)
	case ShapeAllPass:
		return biquad.AllPass(cutoff, resonance, sr)
	default:
		return biquad.Coefficients{B0: 1}
	}
}

// effectiveQ folds bandwidth into resonance. Bandwidth is capped at the
// center frequency before the ratio is taken.
func effectiveQ(center, bandwidth, resonance float64) float64 {
	bandwidth = core.Clamp(bandwidth, 1, center)
	return core.Clamp(center/bandwidth*resonance, minQ, maxEffective)
}

func (f *Filter) Process(in, out [][]float32, n int) {
	var src, dst []float32
	if len(in) > 0 {
		src = in[0]
	}

	if len(out) > 0 {
		dst = out[0]
	}

	if dst == nil {
		if f.Ready() {
			f.Params().AdvanceBlock(n)
		}

		return
	}

	if !f.Ready() {
		for i := 0; i < n && i < len(dst); i++ {
			dst[i] = 0
		}

		return
	}

	f.Params().AdvanceBlock(n)
	f.refresh()

	if src == nil {
		for i := 0; i < n && i < len(dst); i++ {
			dst[i] = 0
		}
	} else {
		copy(dst[:n], src[:n])
	}

	f.section.ProcessBlock32(dst[:n])
}
