package param

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/value"
)

var (
	idGain = ident.New("gain")
	idFreq = ident.New("frequency")
	idMode = ident.New("mode")
	idMute = ident.New("mute")
)

func TestAddDuplicate(t *testing.T) {
	r := NewRegistry(48000)

	if err := r.AddFloat(idGain, "gain", 1); err != nil {
		t.Fatal(err)
	}

	// Same identifier, same kind and role: idempotent.
	if err := r.AddFloat(idGain, "gain", 2); err != nil {
		t.Fatalf("idempotent re-add failed: %v", err)
	}

	if got := r.GetFloat(idGain, -1); got != 1 {
		t.Fatalf("re-add must not overwrite: got %v", got)
	}

	// Same identifier, different kind: rejected.
	if err := r.AddBool(idGain, "gain", false); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	// Same identifier, different interpolation role: rejected.
	if err := r.AddInterpolatedFloat(idGain, "gain", 1); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID on role change, got %v", err)
	}
}

func TestGetMissingReturnsDefault(t *testing.T) {
	r := NewRegistry(48000)

	if got := r.GetFloat(idFreq, 440); got != 440 {
		t.Fatalf("missing GetFloat: got %v want 440", got)
	}

	if got := r.GetBool(idMute, true); got != true {
		t.Fatal("missing GetBool must return default")
	}

	if got := r.GetInt(idMode, 7); got != 7 {
		t.Fatalf("missing GetInt: got %v want 7", got)
	}
}

func TestSetUnknown(t *testing.T) {
	r := NewRegistry(48000)

	if err := r.SetFloat(idFreq, 1, false); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestPlainWriteImmediate(t *testing.T) {
	r := NewRegistry(48000)
	if err := r.AddFloat(idGain, "gain", 0); err != nil {
		t.Fatal(err)
	}

	// interpolate=true on a plain parameter still writes immediately.
	if err := r.SetFloat(idGain, 0.5, true); err != nil {
		t.Fatal(err)
	}

	if got := r.GetFloat(idGain, -1); got != 0.5 {
		t.Fatalf("plain write: got %v want 0.5", got)
	}
}

func TestRampLinearityAndSnap(t *testing.T) {
	r := NewRegistry(48000)
	if err := r.AddInterpolatedFloat(idGain, "gain", 0); err != nil {
		t.Fatal(err)
	}

	const ramp = DefaultRampSamples

	if err := r.SetFloat(idGain, 1, true); err != nil {
		t.Fatal(err)
	}

	prev := r.GetFloat(idGain, 0)
	for i := 1; i <= ramp; i++ {
		r.Advance()

		cur := r.GetFloat(idGain, 0)
		if cur < prev {
			t.Fatalf("ramp not monotonic at step %d: %v < %v", i, cur, prev)
		}

		want := float64(i) / float64(ramp)
		if i < ramp && math.Abs(cur-want) > 1e-9 {
			t.Fatalf("ramp not linear at step %d: got %v want %v", i, cur, want)
		}

		prev = cur
	}

	if got := r.GetFloat(idGain, 0); got != 1.0 {
		t.Fatalf("final sample must snap to target bit-exactly: got %v", got)
	}

	// Further advances hold the target.
	r.Advance()

	if got := r.GetFloat(idGain, 0); got != 1.0 {
		t.Fatalf("post-ramp drift: got %v", got)
	}
}

func TestImmediateWriteBypassesRamp(t *testing.T) {
	r := NewRegistry(48000)
	if err := r.AddInterpolatedFloat(idGain, "gain", 0); err != nil {
		t.Fatal(err)
	}

	if err := r.SetFloat(idGain, 1, false); err != nil {
		t.Fatal(err)
	}

	if got := r.GetFloat(idGain, 0); got != 1 {
		t.Fatalf("immediate write: got %v want 1", got)
	}

	if r.Ramping() {
		t.Fatal("immediate write must not leave a ramp in flight")
	}
}

func TestRetargetMidRamp(t *testing.T) {
	cfg := InterpolationConfig{SampleRate: 48000, RampSamples: 10, Enabled: true}

	r := NewRegistry(48000)
	r.SetInterpolationConfig(cfg)

	if err := r.AddInterpolatedFloat(idGain, "gain", 0); err != nil {
		t.Fatal(err)
	}

	if err := r.SetFloat(idGain, 1, true); err != nil {
		t.Fatal(err)
	}

	for range 5 {
		r.Advance()
	}

	mid := r.GetFloat(idGain, 0)
	if math.Abs(mid-0.5) > 1e-12 {
		t.Fatalf("mid-ramp value: got %v want 0.5", mid)
	}

	// Retarget: new ramp runs from the current value over a full window.
	if err := r.SetFloat(idGain, 0, true); err != nil {
		t.Fatal(err)
	}

	for range 10 {
		r.Advance()
	}

	if got := r.GetFloat(idGain, 0); got != 0 {
		t.Fatalf("retargeted ramp must land on 0, got %v", got)
	}
}

func TestAdvanceBlockMatchesPerSample(t *testing.T) {
	cfg := InterpolationConfig{SampleRate: 48000, RampSamples: 100, Enabled: true}

	a := NewRegistry(48000)
	a.SetInterpolationConfig(cfg)

	b := NewRegistry(48000)
	b.SetInterpolationConfig(cfg)

	for _, r := range []*Registry{a, b} {
		if err := r.AddInterpolatedFloat(idGain, "gain", 0); err != nil {
			t.Fatal(err)
		}

		if err := r.SetFloat(idGain, 1, true); err != nil {
			t.Fatal(err)
		}
	}

	for range 64 {
		a.Advance()
	}

	b.AdvanceBlock(64)

	if av, bv := a.GetFloat(idGain, 0), b.GetFloat(idGain, 0); math.Abs(av-bv) > 1e-9 {
		t.Fatalf("AdvanceBlock diverged: per-sample %v block %v", av, bv)
	}

	// Block larger than remaining snaps to the target.
	b.AdvanceBlock(1000)

	if got := b.GetFloat(idGain, 0); got != 1 {
		t.Fatalf("oversized AdvanceBlock must snap: got %v", got)
	}
}

func TestDisabledInterpolationWritesImmediately(t *testing.T) {
	r := NewRegistry(48000)
	r.SetInterpolationConfig(InterpolationConfig{SampleRate: 48000, RampSamples: 480, Enabled: false})

	if err := r.AddInterpolatedFloat(idGain, "gain", 0); err != nil {
		t.Fatal(err)
	}

	if err := r.SetFloat(idGain, 1, true); err != nil {
		t.Fatal(err)
	}

	if got := r.GetFloat(idGain, 0); got != 1 {
		t.Fatalf("disabled interpolation: got %v want 1", got)
	}
}

func TestZeroRampSamplesWritesImmediately(t *testing.T) {
	r := NewRegistry(48000)
	r.SetInterpolationConfig(InterpolationConfig{SampleRate: 48000, RampSamples: 0, Enabled: true})

	if err := r.AddInterpolatedFloat(idGain, "gain", 0); err != nil {
		t.Fatal(err)
	}

	if err := r.SetFloat(idGain, 1, true); err != nil {
		t.Fatal(err)
	}

	if got := r.GetFloat(idGain, 0); got != 1 {
		t.Fatalf("zero ramp window: got %v want 1", got)
	}
}

func TestConfigChangeCompletesInFlightRamps(t *testing.T) {
	r := NewRegistry(48000)
	if err := r.AddInterpolatedFloat(idGain, "gain", 0); err != nil {
		t.Fatal(err)
	}

	if err := r.SetFloat(idGain, 1, true); err != nil {
		t.Fatal(err)
	}

	r.SetInterpolationConfig(InterpolationConfig{Enabled: false})

	if got := r.GetFloat(idGain, 0); got != 1 {
		t.Fatalf("disabling must complete ramps: got %v", got)
	}
}

func TestRangeClamping(t *testing.T) {
	r := NewRegistry(48000)
	if err := r.AddFloatRange(idFreq, "frequency", 440, 20, 20000); err != nil {
		t.Fatal(err)
	}

	if err := r.SetFloat(idFreq, 1e6, false); err != nil {
		t.Fatal(err)
	}

	if got := r.GetFloat(idFreq, 0); got != 20000 {
		t.Fatalf("clamped write: got %v want 20000", got)
	}

	lo, hi, ok := r.Range(idFreq)
	if !ok || lo != 20 || hi != 20000 {
		t.Fatalf("Range: got %v,%v,%v", lo, hi, ok)
	}
}

func TestSetRangeTightensCurrent(t *testing.T) {
	r := NewRegistry(48000)
	if err := r.AddFloat(idFreq, "frequency", 30000); err != nil {
		t.Fatal(err)
	}

	if err := r.SetRange(idFreq, 20, 21600); err != nil {
		t.Fatal(err)
	}

	if got := r.GetFloat(idFreq, 0); got != 21600 {
		t.Fatalf("SetRange must clamp current: got %v", got)
	}
}

func TestIntBoolValueKinds(t *testing.T) {
	r := NewRegistry(48000)

	if err := r.AddInt(idMode, "mode", 2); err != nil {
		t.Fatal(err)
	}

	if err := r.AddBool(idMute, "mute", false); err != nil {
		t.Fatal(err)
	}

	if err := r.SetInt(idMode, 3); err != nil {
		t.Fatal(err)
	}

	if got := r.GetInt(idMode, 0); got != 3 {
		t.Fatalf("GetInt: got %v", got)
	}

	if err := r.SetBool(idMute, true); err != nil {
		t.Fatal(err)
	}

	if !r.GetBool(idMute, false) {
		t.Fatal("GetBool after SetBool(true)")
	}

	if err := r.SetFloat(idMode, 1, false); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("SetFloat on int parameter: got %v", err)
	}

	idArr := ident.New("ir")
	if err := r.AddValue(idArr, "ir", value.F64Array([]float64{1, 0.5})); err != nil {
		t.Fatal(err)
	}

	got, err := r.GetValue(idArr).F64Slice()
	if err != nil || got[1] != 0.5 {
		t.Fatalf("GetValue array: %v, %v", got, err)
	}
}

func TestSetNumericDispatch(t *testing.T) {
	r := NewRegistry(48000)

	_ = r.AddFloat(idGain, "gain", 0)
	_ = r.AddInt(idMode, "mode", 0)
	_ = r.AddBool(idMute, "mute", false)

	if err := r.SetNumeric(idGain, 0.25, false); err != nil {
		t.Fatal(err)
	}

	if err := r.SetNumeric(idMode, 2.6, false); err != nil {
		t.Fatal(err)
	}

	if err := r.SetNumeric(idMute, 1, false); err != nil {
		t.Fatal(err)
	}

	if r.GetFloat(idGain, 0) != 0.25 || r.GetInt(idMode, 0) != 3 || !r.GetBool(idMute, false) {
		t.Fatalf("SetNumeric dispatch: gain=%v mode=%v mute=%v",
			r.GetFloat(idGain, 0), r.GetInt(idMode, 0), r.GetBool(idMute, false))
	}
}

func TestAdvanceAllocationFree(t *testing.T) {
	r := NewRegistry(48000)
	_ = r.AddInterpolatedFloat(idGain, "gain", 0)
	_ = r.SetFloat(idGain, 1, true)

	allocs := testing.AllocsPerRun(100, func() {
		r.Advance()
		_ = r.GetFloat(idGain, 0)
	})
	if allocs != 0 {
		t.Fatalf("Advance allocated %v times per run", allocs)
	}
}
