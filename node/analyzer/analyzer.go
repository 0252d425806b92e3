// Package analyzer provides the spectrum analyzer node: a pass-through
// tap that windows a circular capture buffer, runs a forward FFT at a
// configurable update rate, and publishes per-bin magnitude, phase and
// power together with peak frequency and spectral centroid.
package analyzer

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/window"
	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// TypeSpectrumAnalyzer identifies the spectrum analyzer node type.
var TypeSpectrumAnalyzer = ident.New("analyzer.spectrum")

// Parameter and event identifiers for the analyzer node.
var (
	IDWindowSize     = ident.New("window_size")
	IDWindowFunction = ident.New("window_function")
	IDOverlap        = ident.New("overlap")
	IDUpdateRateHz   = ident.New("update_rate_hz")
	IDMinFreq        = ident.New("min_freq")
	IDMaxFreq        = ident.New("max_freq")
	IDPeakFrequency  = ident.New("peak_frequency")
	IDCentroid       = ident.New("spectral_centroid")
	IDReset          = ident.New("reset")
)

const (
	minWindowSize = 64
	maxWindowSize = 8192
)

// SpectrumAnalyzer taps the signal without modifying it. Window size and
// window function take effect at Initialize; update rate and the
// analysis band may move freely between blocks.
type SpectrumAnalyzer struct {
	node.Base

	size int
	plan *algofft.Plan[complex128]

	ring    []float64
	ringPos int

	scratch  []float64
	coeffs   []float64
	spectrum []complex128

	re, im    []float64
	magnitude []float64
	phase     []float64
	power     []float64

	sinceUpdate int
	passes      uint64

	peakFreq float64
	centroid float64

	resetFlag event.Flag
}

// NewSpectrumAnalyzer returns an analyzer with a 2048-point Hann window
// updating 30 times per second over the full band.
func NewSpectrumAnalyzer() (*SpectrumAnalyzer, error) {
	a := &SpectrumAnalyzer{}
	a.Base = node.NewBase()

	p := a.Params()
	for _, reg := range []error{
		p.AddInt(IDWindowSize, "window_size", 2048),
		p.AddInt(IDWindowFunction, "window_function", int64(window.TypeHann)),
		p.AddFloatRange(IDOverlap, "overlap", 0.5, 0, 0.875),
		p.AddFloatRange(IDUpdateRateHz, "update_rate_hz", 30, 1, 1000),
		p.AddFloat(IDMinFreq, "min_freq", 0),
		p.AddFloat(IDMaxFreq, "max_freq", 24000),
		p.AddFloat(IDPeakFrequency, "peak_frequency", 0),
		p.AddFloat(IDCentroid, "spectral_centroid", 0),
	} {
		if reg != nil {
			return nil, reg
		}
	}

	err := a.AddInEvent(IDReset, event.NewInput(event.FlagTrigger(&a.resetFlag)))
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *SpectrumAnalyzer) TypeID() ident.ID { return TypeSpectrumAnalyzer }

func (a *SpectrumAnalyzer) DisplayName() string { return "Spectrum Analyzer" }

// Initialize allocates the capture and analysis buffers. The configured
// window_size is clamped and rounded up to a power of two in [64, 8192].
func (a *SpectrumAnalyzer) Initialize(sampleRate float64, maxBlock int) error {
	if err := a.Configure(sampleRate, maxBlock); err != nil {
		return err
	}

	p := a.Params()

	size := core.NextPowerOfTwo(int(p.GetInt(IDWindowSize, 2048)))
	size = core.ClampInt(size, minWindowSize, maxWindowSize)
	a.size = size

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return err
	}

	a.plan = plan

	fn := window.Type(p.GetInt(IDWindowFunction, int64(window.TypeHann)))
	a.coeffs = window.Generate(fn, size, window.WithPeriodic())

	a.ring = make([]float64, size)
	a.scratch = make([]float64, size)
	a.spectrum = make([]complex128, size)

	bins := size / 2
	a.re = make([]float64, bins)
	a.im = make([]float64, bins)
	a.magnitude = make([]float64, bins)
	a.phase = make([]float64, bins)
	a.power = make([]float64, bins)

	if err := p.SetRange(IDMinFreq, 0, sampleRate/2); err != nil {
		return err
	}

	if err := p.SetRange(IDMaxFreq, 1, sampleRate/2); err != nil {
		return err
	}

	a.Reset()

	return nil
}

// Reset clears the capture buffer, counters and published spectrum.
func (a *SpectrumAnalyzer) Reset() {
	core.Zero(a.ring)
	core.Zero(a.magnitude)
	core.Zero(a.phase)
	core.Zero(a.power)

	a.ringPos = 0
	a.sinceUpdate = 0
	a.peakFreq = 0
	a.centroid = 0
	a.resetFlag.CheckAndResetIfDirty()
}

func (a *SpectrumAnalyzer) StreamInputs() []string { return []string{"in"} }

func (a *SpectrumAnalyzer) StreamOutputs() []string { return []string{"out"} }

// Magnitudes returns the per-bin magnitudes of the latest analysis
// pass. The slice is reused between passes.
func (a *SpectrumAnalyzer) Magnitudes() []float64 { return a.magnitude }

// Phases returns the per-bin phases of the latest analysis pass.
func (a *SpectrumAnalyzer) Phases() []float64 { return a.phase }

// Powers returns the per-bin powers of the latest analysis pass.
func (a *SpectrumAnalyzer) Powers() []float64 { return a.power }

// PeakFrequency reports the magnitude argmax in Hz within the band.
func (a *SpectrumAnalyzer) PeakFrequency() float64 { return a.peakFreq }

// SpectralCentroid reports the magnitude-weighted mean frequency.
func (a *SpectrumAnalyzer) SpectralCentroid() float64 { return a.centroid }

// Passes reports how many analysis passes have completed.
func (a *SpectrumAnalyzer) Passes() uint64 { return a.passes }

// WindowSize reports the active (post-Initialize) window size.
func (a *SpectrumAnalyzer) WindowSize() int { return a.size }

func (a *SpectrumAnalyzer) Process(in, out [][]float32, n int) {
	var src, dst []float32
	if len(in) > 0 {
		src = in[0]
	}

	if len(out) > 0 {
		dst = out[0]
	}

	if !a.Ready() || src == nil {
		if dst != nil {
			core.Zero32(dst[:n])
		}

		return
	}

	if a.resetFlag.CheckAndResetIfDirty() {
		a.Reset()
	}

	if dst != nil {
		copy(dst[:n], src[:n])
	}

	rate := a.Params().GetFloat(IDUpdateRateHz, 30)
	interval := int(a.SampleRate()/rate + 0.5)
	if interval < 1 {
		interval = 1
	}

	for i := 0; i < n; i++ {
		a.ring[a.ringPos] = float64(src[i])

		a.ringPos++
		if a.ringPos == a.size {
			a.ringPos = 0
		}

		a.sinceUpdate++
		if a.sinceUpdate >= interval {
			a.analyze()
			a.sinceUpdate = 0
		}
	}
}

// analyze runs one windowed FFT pass over the capture buffer and
// refreshes the published spectrum.
func (a *SpectrumAnalyzer) analyze() {
	// Unroll the ring so scratch[0] is the oldest captured sample.
	head := a.ring[a.ringPos:]
	copy(a.scratch, head)
	copy(a.scratch[len(head):], a.ring[:a.ringPos])

	window.Apply(a.scratch, a.coeffs)

	for i, v := range a.scratch {
		a.spectrum[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.spectrum, a.spectrum); err != nil {
		return
	}

	for k := range a.re {
		a.re[k] = real(a.spectrum[k])
		a.im[k] = imag(a.spectrum[k])
	}

	vecmath.Magnitude(a.magnitude, a.re, a.im)
	vecmath.Power(a.power, a.re, a.im)

	for k := range a.phase {
		a.phase[k] = math.Atan2(a.im[k], a.re[k])
	}

	a.refreshBandStats()
	a.passes++

	p := a.Params()
	_ = p.SetFloat(IDPeakFrequency, a.peakFreq, false)
	_ = p.SetFloat(IDCentroid, a.centroid, false)
}

func (a *SpectrumAnalyzer) refreshBandStats() {
	p := a.Params()
	sr := a.SampleRate()

	minF := p.GetFloat(IDMinFreq, 0)
	maxF := p.GetFloat(IDMaxFreq, sr/2)
	if maxF < minF+1 {
		maxF = minF + 1
	}

	binHz := sr / float64(a.size)

	var (
		peakMag  float64
		peakBin  = -1
		weighted float64
		total    float64
	)

	for k := range a.magnitude {
		freq := float64(k) * binHz
		if freq < minF || freq > maxF {
			continue
		}

		mag := a.magnitude[k]
		if mag > peakMag {
			peakMag = mag
			peakBin = k
		}

		weighted += freq * mag
		total += mag
	}

	if peakBin >= 0 {
		a.peakFreq = float64(peakBin) * binHz
	} else {
		a.peakFreq = 0
	}

	if total > 0 {
		a.centroid = weighted / total
	} else {
		a.centroid = 0
	}
}
