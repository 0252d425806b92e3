package filter

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/biquad"
	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/internal/testutil"
)

const testSampleRate = 48000.0

func initialized(t *testing.T, mk func() (*Filter, error)) *Filter {
	t.Helper()

	f, err := mk()
	if err != nil {
		t.Fatalf("constructor: %v", err)
	}

	if err := f.Initialize(testSampleRate, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	return f
}

func processBlock(f *Filter, src []float32) []float32 {
	dst := make([]float32, len(src))
	f.Process([][]float32{src}, [][]float32{dst}, len(src))

	return dst
}

func TestLowPassDCConvergence(t *testing.T) {
	f := initialized(t, NewLowPass)

	if err := f.Params().SetFloat(IDCutoff, 100, false); err != nil {
		t.Fatal(err)
	}

	src := testutil.DC32(1, 512)

	var last float32
	for processed := 0; processed < int(testSampleRate); processed += len(src) {
		out := processBlock(f, src)
		last = out[len(out)-1]
	}

	if math.Abs(float64(last)-1) > 1e-4 {
		t.Fatalf("DC output after 1 s = %v, want within 1e-4 of 1", last)
	}
}

func TestFilterResetClearsMemory(t *testing.T) {
	f := initialized(t, NewBandPass)

	impulse := testutil.Impulse32(256, 0)

	first := processBlock(f, impulse)
	processBlock(f, testutil.Noise32(7, 0.8, 256))
	f.Reset()

	second := processBlock(f, impulse)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d after Reset: got %v, want %v", i, second[i], first[i])
		}
	}
}

// Steady-state sine gain must match the analytic magnitude response.
func TestFilterSineGainMatchesResponse(t *testing.T) {
	cases := []struct {
		name string
		mk   func() (*Filter, error)
		freq float64
	}{
		{"lowpass", NewLowPass, 440},
		{"highpass", NewHighPass, 2000},
		{"allpass", NewAllPass, 700},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := initialized(t, tc.mk)

			want := biquad.MagnitudeAt(f.Coefficients(), tc.freq, testSampleRate)

			src := make([]float32, 512)
			phase := 0.0
			step := 2 * math.Pi * tc.freq / testSampleRate

			var settled []float32
			for block := 0; block < 20; block++ {
				for i := range src {
					src[i] = float32(math.Sin(phase))
					phase += step
				}

				out := processBlock(f, src)
				if block >= 10 {
					settled = append(settled, out...)
				}
			}

			got := core.RMS32(settled) / (1 / math.Sqrt2)
			if math.Abs(got-want) > 0.01 {
				t.Fatalf("gain at %v Hz = %v, want %v", tc.freq, got, want)
			}
		})
	}
}

func TestNotchRejectsCenterFrequency(t *testing.T) {
	f := initialized(t, NewNotch)

	p := f.Params()
	if err := p.SetFloat(IDCutoff, 1000, false); err != nil {
		t.Fatal(err)
	}

	if err := p.SetFloat(IDBandwidth, 100, false); err != nil {
		t.Fatal(err)
	}

	src := make([]float32, 512)
	phase := 0.0
	step := 2 * math.Pi * 1000 / testSampleRate

	var out []float32
	for block := 0; block < 40; block++ {
		for i := range src {
			src[i] = float32(math.Sin(phase))
			phase += step
		}

		out = processBlock(f, src)
	}

	if rms := core.RMS32(out); rms > 0.02 {
		t.Fatalf("notch output RMS = %v, want < 0.02", rms)
	}
}

func TestEffectiveQClamping(t *testing.T) {
	cases := []struct {
		center, bandwidth, resonance float64
		want                         float64
	}{
		{1000, 100, 1, 10},
		{1000, 100, 0.05, 0.5},
		{1000, 1, 1, 30},      // capped at the upper bound
		{1000, 5000, 1, 1},    // bandwidth capped at center
		{1000, 100, 0.001, 0.1}, // floor
	}

	for _, tc := range cases {
		got := effectiveQ(tc.center, tc.bandwidth, tc.resonance)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("effectiveQ(%v, %v, %v) = %v, want %v",
				tc.center, tc.bandwidth, tc.resonance, got, tc.want)
		}
	}
}

func TestCutoffClampedToRange(t *testing.T) {
	f := initialized(t, NewLowPass)

	if err := f.Params().SetFloat(IDCutoff, 1e6, false); err != nil {
		t.Fatal(err)
	}

	if got := f.Params().GetFloat(IDCutoff, 0); got != 0.45*testSampleRate {
		t.Fatalf("cutoff = %v, want %v", got, 0.45*testSampleRate)
	}

	if err := f.Params().SetFloat(IDCutoff, 1, false); err != nil {
		t.Fatal(err)
	}

	if got := f.Params().GetFloat(IDCutoff, 0); got != 20 {
		t.Fatalf("cutoff = %v, want 20", got)
	}
}

func TestCoefficientsRecomputedOnChange(t *testing.T) {
	f := initialized(t, NewLowPass)

	before := f.Coefficients()

	if err := f.Params().SetFloat(IDCutoff, 5000, false); err != nil {
		t.Fatal(err)
	}

	after := f.Coefficients()
	if before == after {
		t.Fatal("coefficients unchanged after cutoff change")
	}

	want := biquad.LowPass(5000, math.Sqrt2/2, testSampleRate)
	if after != want {
		t.Fatalf("coefficients = %+v, want %+v", after, want)
	}
}

func TestFilterProcessAllocs(t *testing.T) {
	f := initialized(t, NewLowPass)

	src := make([]float32, 512)
	dst := make([]float32, 512)
	in := [][]float32{src}
	out := [][]float32{dst}

	allocs := testing.AllocsPerRun(50, func() {
		f.Process(in, out, 512)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}
