package mix

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestGainScalesInput(t *testing.T) {
	g, err := NewGain()
	if err != nil {
		t.Fatalf("NewGain: %v", err)
	}

	if err := g.Initialize(48000, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := g.Params().SetFloat(IDGain, 0.5, false); err != nil {
		t.Fatalf("SetFloat: %v", err)
	}

	src := make([]float32, 64)
	for i := range src {
		src[i] = float32(i)
	}

	dst := make([]float32, 64)
	g.Process([][]float32{src}, [][]float32{dst}, 64)

	for i := range dst {
		if !almostEqual(float64(dst[i]), float64(i)*0.5, 1e-6) {
			t.Fatalf("sample %d: got %v, want %v", i, dst[i], float32(i)*0.5)
		}
	}
}

func TestGainInterpolatesTowardTarget(t *testing.T) {
	g, err := NewGain()
	if err != nil {
		t.Fatalf("NewGain: %v", err)
	}

	if err := g.Initialize(48000, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// Interpolated write ramps from the current value instead of jumping.
	if err := g.Params().SetFloat(IDGain, 0, true); err != nil {
		t.Fatalf("SetFloat: %v", err)
	}

	src := make([]float32, 256)
	for i := range src {
		src[i] = 1
	}

	dst := make([]float32, 256)
	g.Process([][]float32{src}, [][]float32{dst}, 256)

	if dst[0] >= 1 {
		t.Fatalf("first sample %v should already be below unity", dst[0])
	}

	for i := 1; i < len(dst); i++ {
		if dst[i] > dst[i-1]+1e-6 {
			t.Fatalf("gain ramp not monotonic at %d: %v -> %v", i, dst[i-1], dst[i])
		}
	}
}

func TestAddSumsTwoInputs(t *testing.T) {
	a, err := NewAdd()
	if err != nil {
		t.Fatalf("NewAdd: %v", err)
	}

	if err := a.Initialize(48000, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	x := []float32{1, 2, 3, 4}
	y := []float32{10, 20, 30, 40}
	dst := make([]float32, 4)

	a.Process([][]float32{x, y}, [][]float32{dst}, 4)

	want := []float32{11, 22, 33, 44}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestAddMissingInputIsSilent(t *testing.T) {
	a, err := NewAdd()
	if err != nil {
		t.Fatalf("NewAdd: %v", err)
	}

	if err := a.Initialize(48000, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	x := []float32{1, 2, 3, 4}
	dst := make([]float32, 4)

	a.Process([][]float32{x}, [][]float32{dst}, 4)

	for i := range x {
		if dst[i] != x[i] {
			t.Fatalf("sample %d: got %v, want %v", i, dst[i], x[i])
		}
	}
}

func TestMultiplyRingModulates(t *testing.T) {
	m, err := NewMultiply()
	if err != nil {
		t.Fatalf("NewMultiply: %v", err)
	}

	if err := m.Initialize(48000, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	const n = 128

	x := make([]float32, n)
	y := make([]float32, n)
	for i := 0; i < n; i++ {
		x[i] = float32(math.Sin(2 * math.Pi * float64(i) / 48))
		y[i] = float32(math.Sin(2 * math.Pi * float64(i) / 96))
	}

	dst := make([]float32, n)
	m.Process([][]float32{x, y}, [][]float32{dst}, n)

	for i := 0; i < n; i++ {
		if !almostEqual(float64(dst[i]), float64(x[i])*float64(y[i]), 1e-6) {
			t.Fatalf("sample %d: got %v, want %v", i, dst[i], x[i]*y[i])
		}
	}
}

func TestMixerAppliesPerInputLevels(t *testing.T) {
	m, err := NewMixer(3)
	if err != nil {
		t.Fatalf("NewMixer: %v", err)
	}

	if err := m.Initialize(48000, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	levels := []float64{1, 0.5, 0}
	for i, lv := range levels {
		if err := m.Params().SetFloat(m.LevelID(i), lv, false); err != nil {
			t.Fatalf("SetFloat level %d: %v", i, err)
		}
	}

	in := [][]float32{
		{1, 1, 1, 1},
		{2, 2, 2, 2},
		{100, 100, 100, 100},
	}

	dst := make([]float32, 4)
	m.Process(in, [][]float32{dst}, 4)

	for i := range dst {
		if !almostEqual(float64(dst[i]), 2, 1e-6) {
			t.Fatalf("sample %d: got %v, want 2", i, dst[i])
		}
	}
}

func TestMixerRejectsZeroInputs(t *testing.T) {
	if _, err := NewMixer(0); err == nil {
		t.Fatal("NewMixer(0) should fail")
	}
}

func TestMixerPortNames(t *testing.T) {
	m, err := NewMixer(2)
	if err != nil {
		t.Fatalf("NewMixer: %v", err)
	}

	ins := m.StreamInputs()
	want := []string{"in_0", "in_1"}
	if len(ins) != len(want) {
		t.Fatalf("got %d inputs, want %d", len(ins), len(want))
	}

	for i := range want {
		if ins[i] != want[i] {
			t.Fatalf("input %d: got %q, want %q", i, ins[i], want[i])
		}
	}

	if m.LevelID(5) != 0 {
		t.Fatal("out-of-range LevelID should be invalid")
	}
}

func TestProcessBeforeInitializeIsSilent(t *testing.T) {
	g, err := NewGain()
	if err != nil {
		t.Fatalf("NewGain: %v", err)
	}

	src := []float32{1, 1, 1, 1}
	dst := []float32{9, 9, 9, 9}
	g.Process([][]float32{src}, [][]float32{dst}, 4)

	for i := range dst {
		if dst[i] != 0 {
			t.Fatalf("sample %d: got %v, want 0", i, dst[i])
		}
	}
}

func TestMixProcessAllocs(t *testing.T) {
	m, err := NewMixer(4)
	if err != nil {
		t.Fatalf("NewMixer: %v", err)
	}

	if err := m.Initialize(48000, 512); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	in := make([][]float32, 4)
	for i := range in {
		in[i] = make([]float32, 512)
	}

	out := [][]float32{make([]float32, 512)}

	allocs := testing.AllocsPerRun(20, func() {
		m.Process(in, out, 512)
	})

	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}
