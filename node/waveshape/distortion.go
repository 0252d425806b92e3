// Package waveshape provides the distortion node: seven waveshaping
// algorithms behind a common drive → shape → tone → level → DC-blocker
// → wet/dry chain.
package waveshape

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
)

// TypeDistortion identifies the distortion node type.
var TypeDistortion = ident.New("waveshape.distortion")

// Algorithm selects the waveshaper.
type Algorithm int64

const (
	SoftClip Algorithm = iota
	HardClip
	TubeSaturation
	BitCrush
	Wavefold
	Fuzz
	Overdrive
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case SoftClip:
		return "softclip"
	case HardClip:
		return "hardclip"
	case TubeSaturation:
		return "tube"
	case BitCrush:
		return "bitcrush"
	case Wavefold:
		return "wavefold"
	case Fuzz:
		return "fuzz"
	case Overdrive:
		return "overdrive"
	default:
		return "unknown"
	}
}

// Parameter identifiers for the distortion node.
var (
	IDAlgorithm  = ident.New("type")
	IDDriveDB    = ident.New("drive_db")
	IDTone       = ident.New("tone")
	IDOutputDB   = ident.New("output_db")
	IDWetDry     = ident.New("wet_dry")
	IDBitDepth   = ident.New("bit_depth")
	IDSRRFactor  = ident.New("srr_factor")
	IDTubeWarmth = ident.New("tube_warmth")
	IDTubeAsym   = ident.New("tube_asymmetry")
	IDHarmonics  = ident.New("harmonic_content")
)

const (
	foldLimit  = 0.7
	dcPole     = 0.995
	biasLeak   = 0.999
	harmSmooth = 0.9
)

// Distortion is a mono waveshaper node.
type Distortion struct {
	node.Base

	// tone one-pole and DC blocker memories
	lpState float64
	dcX1    float64
	dcY1    float64

	// tube bias integrator
	bias float64

	// bitcrush sample-and-hold
	held        float64
	holdCounter int

	harmonic float64

	toneCoeff float64
	toneMix   float64
}

// NewDistortion returns a soft-clip distortion with unity drive, neutral
// tone and full wet mix.
func NewDistortion() (*Distortion, error) {
	d := &Distortion{Base: node.NewBase()}

	p := d.Params()
	for _, reg := range []error{
		p.AddInt(IDAlgorithm, "type", int64(SoftClip)),
		p.AddInterpolatedFloatRange(IDDriveDB, "drive_db", 0, 0, 40),
		p.AddInterpolatedFloatRange(IDTone, "tone", 0, -1, 1),
		p.AddInterpolatedFloatRange(IDOutputDB, "output_db", 0, -40, 20),
		p.AddInterpolatedFloatRange(IDWetDry, "wet_dry", 1, 0, 1),
		p.AddInt(IDBitDepth, "bit_depth", 8),
		p.AddFloatRange(IDSRRFactor, "srr_factor", 4, 1, 64),
		p.AddFloatRange(IDTubeWarmth, "tube_warmth", 0.5, 0, 1),
		p.AddFloatRange(IDTubeAsym, "tube_asymmetry", 0, 0, 1),
		p.AddFloat(IDHarmonics, "harmonic_content", 0),
	} {
		if reg != nil {
			return nil, reg
		}
	}

	return d, nil
}

func (d *Distortion) TypeID() ident.ID { return TypeDistortion }

func (d *Distortion) DisplayName() string { return "Distortion" }

func (d *Distortion) Initialize(sampleRate float64, maxBlock int) error {
	if err := d.Configure(sampleRate, maxBlock); err != nil {
		return err
	}

	d.Reset()

	return nil
}

// Reset clears the filter memories, bias integrator and hold state.
func (d *Distortion) Reset() {
	d.lpState = 0
	d.dcX1 = 0
	d.dcY1 = 0
	d.bias = 0
	d.held = 0
	d.holdCounter = 0
	d.harmonic = 0
}

func (d *Distortion) StreamInputs() []string { return []string{"in"} }

func (d *Distortion) StreamOutputs() []string { return []string{"out"} }

// HarmonicContent reports the smoothed added-harmonics estimate.
func (d *Distortion) HarmonicContent() float64 { return d.harmonic }

func (d *Distortion) Process(in, out [][]float32, n int) {
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

	if !d.Ready() || src == nil {
		core.Zero32(dst[:n])
		return
	}

	p := d.Params()
	d.refreshTone()

	algo := Algorithm(p.GetInt(IDAlgorithm, int64(SoftClip)))
	bits := core.ClampInt(int(p.GetInt(IDBitDepth, 8)), 1, 24)
	period := int(p.GetFloat(IDSRRFactor, 4) + 0.5)
	if period < 1 {
		period = 1
	}

	warmth := p.GetFloat(IDTubeWarmth, 0.5)
	asym := p.GetFloat(IDTubeAsym, 0)

	var inSq, outSq float64

	for i := 0; i < n; i++ {
		p.Advance()

		dry := float64(src[i])
		drive := core.DBToLinear(p.GetFloat(IDDriveDB, 0))
		level := core.DBToLinear(p.GetFloat(IDOutputDB, 0))
		wet := p.GetFloat(IDWetDry, 1)

		x := d.shape(dry*drive, algo, bits, period, warmth, asym)

		// Tone: mix the one-pole lowpass (dark) against the raw shaped
		// signal (bright).
		d.lpState += (1 - d.toneCoeff) * (x - d.lpState)
		x = d.lpState*(1-d.toneMix) + x*d.toneMix

		x *= level

		// DC blocker: y[n] = x[n] - x[n-1] + 0.995*y[n-1]
		y := x - d.dcX1 + dcPole*d.dcY1
		d.dcX1 = x
		d.dcY1 = core.FlushDenormals(y)

		mixed := y*wet + dry*(1-wet)
		dst[i] = float32(mixed)

		inSq += dry * dry
		outSq += mixed * mixed
	}

	d.updateHarmonics(inSq, outSq, n)
}

// refreshTone recomputes the tone filter coefficient and mix at block
// rate from the current tone parameter.
func (d *Distortion) refreshTone() {
	tone := d.Params().GetFloat(IDTone, 0)
	cutoff := core.Clamp(1000+tone*2000, 20, 0.45*d.SampleRate())

	d.toneCoeff = math.Exp(-2 * math.Pi * cutoff / d.SampleRate())
	d.toneMix = (tone + 1) / 2
}

func (d *Distortion) shape(x float64, algo Algorithm, bits, period int, warmth, asym float64) float64 {
	switch algo {
	case HardClip:
		return core.Clamp(x, -1, 1)

	case TubeSaturation:
		drivePos := 1 + warmth + asym
		driveNeg := 1 + warmth - asym

		k := drivePos
		if x < 0 {
			k = driveNeg
		}

		y := x / (1 + math.Abs(x*k))

		// Slow bias integrator re-centers the asymmetric output.
		d.bias = biasLeak*d.bias + (1-biasLeak)*y

		return y - d.bias

	case BitCrush:
		if d.holdCounter <= 0 {
			step := 2.0 / float64(int64(1)<<uint(bits))
			d.held = math.Round(x/step) * step
			d.holdCounter = period
		}

		d.holdCounter--

		return d.held

	case Wavefold:
		for iter := 0; iter < 32 && math.Abs(x) > foldLimit; iter++ {
			if x > foldLimit {
				x = 2*foldLimit - x
			} else if x < -foldLimit {
				x = -2*foldLimit - x
			}
		}

		return x

	case Fuzz:
		y := sign(x) * math.Sqrt(math.Abs(x)) * 1.2
		return core.Clamp(y, -1, 1)

	case Overdrive:
		ax := math.Abs(x)

		var y float64
		switch {
		case ax < 1.0/3.0:
			y = 2 * x
		case ax < 2.0/3.0:
			y = sign(x) * (3 - (2-3*ax)*(2-3*ax)) / 3
		default:
			y = sign(x)
		}

		return y * 0.7

	default: // SoftClip
		return math.Tanh(2*x) * 0.5
	}
}

// updateHarmonics publishes the smoothed added-harmonics estimate
// max(0, out_rms/in_rms - 1) once per block.
func (d *Distortion) updateHarmonics(inSq, outSq float64, n int) {
	if n <= 0 || inSq == 0 {
		return
	}

	inRMS := math.Sqrt(inSq / float64(n))
	outRMS := math.Sqrt(outSq / float64(n))

	h := math.Max(0, outRMS/inRMS-1)
	d.harmonic = harmSmooth*d.harmonic + (1-harmSmooth)*h

	_ = d.Params().SetFloat(IDHarmonics, d.harmonic, false)
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}

	if x > 0 {
		return 1
	}

	return 0
}
