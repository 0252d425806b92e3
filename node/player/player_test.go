package player

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-soundgraph/audiofile"
	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/value"
)

const testSampleRate = 48000.0

func constantAsset(t *testing.T, frames int, level float32, channels int) *audiofile.Data {
	t.Helper()

	chs := make([][]float32, channels)
	for c := range chs {
		chs[c] = make([]float32, frames)
		for i := range chs[c] {
			chs[c][i] = level
		}
	}

	d, err := audiofile.New(chs, testSampleRate)
	if err != nil {
		t.Fatalf("audiofile.New: %v", err)
	}

	return d
}

func rampAsset(t *testing.T, frames int) *audiofile.Data {
	t.Helper()

	ch := make([]float32, frames)
	for i := range ch {
		ch[i] = float32(i)
	}

	d, err := audiofile.New([][]float32{ch}, testSampleRate)
	if err != nil {
		t.Fatalf("audiofile.New: %v", err)
	}

	return d
}

func newInitialized(t *testing.T) *WavePlayer {
	t.Helper()

	w, err := NewWavePlayer()
	if err != nil {
		t.Fatalf("NewWavePlayer: %v", err)
	}

	if err := w.Initialize(testSampleRate, 480); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	return w
}

func countEvents(w *WavePlayer, id ident.ID, payloads *[]int64) *int {
	count := new(int)

	w.OutEvent(id).Connect(event.NewInput(func(p value.Value) {
		*count++

		if payloads != nil {
			if v, ok := p.Numeric(); ok {
				*payloads = append(*payloads, int64(v))
			}
		}
	}))

	return count
}

// Mono loop scenario: a one second constant asset looping twice plays
// three seconds of signal, raising on_loop(1), on_loop(2) and one
// on_finish.
func TestMonoLoopScenario(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(constantAsset(t, 48000, 0.25, 1))

	p := w.Params()
	if err := p.SetBool(IDLoop, true); err != nil {
		t.Fatal(err)
	}

	if err := p.SetInt(IDLoopCount, 2); err != nil {
		t.Fatal(err)
	}

	var loopPayloads []int64
	plays := countEvents(w, IDOnPlay, nil)
	loops := countEvents(w, IDOnLoop, &loopPayloads)
	finishes := countEvents(w, IDOnFinish, nil)

	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 480)
	right := make([]float32, 480)
	out := [][]float32{left, right}

	total := int(4 * testSampleRate) // 4 s covers the 3 s of audio
	audible := 0

	for fed := 0; fed < total; fed += 480 {
		w.Process(nil, out, 480)

		for i := range left {
			frame := fed + i
			want := float32(0.25)
			if frame >= 144000 {
				want = 0
			}

			if left[i] != want || right[i] != want {
				t.Fatalf("frame %d: got L %v R %v, want %v", frame, left[i], right[i], want)
			}

			if left[i] != 0 {
				audible++
			}
		}
	}

	if *plays != 1 {
		t.Fatalf("on_play raised %d times, want 1", *plays)
	}

	if *loops != 2 {
		t.Fatalf("on_loop raised %d times, want 2", *loops)
	}

	for i, want := range []int64{1, 2} {
		if loopPayloads[i] != want {
			t.Fatalf("on_loop payload %d = %d, want %d", i, loopPayloads[i], want)
		}
	}

	if *finishes != 1 {
		t.Fatalf("on_finish raised %d times, want 1", *finishes)
	}

	if audible != 144000 {
		t.Fatalf("audible frames = %d, want 144000", audible)
	}
}

// Three loops of a one second asset raise on_loop(1..3) and then one
// on_finish, in that order.
func TestLoopCounterEventOrder(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(constantAsset(t, 48000, 0.5, 1))

	p := w.Params()
	if err := p.SetBool(IDLoop, true); err != nil {
		t.Fatal(err)
	}

	if err := p.SetInt(IDLoopCount, 3); err != nil {
		t.Fatal(err)
	}

	var order []int64

	w.OutEvent(IDOnLoop).Connect(event.NewInput(func(pv value.Value) {
		if v, ok := pv.Numeric(); ok {
			order = append(order, int64(v))
		}
	}))

	w.OutEvent(IDOnFinish).Connect(event.NewInput(func(value.Value) {
		order = append(order, -1)
	}))

	w.InEvent(IDPlay).Invoke(value.Value{})

	out := [][]float32{make([]float32, 480), make([]float32, 480)}
	for fed := 0; fed < int(5*testSampleRate); fed += 480 {
		w.Process(nil, out, 480)
	}

	want := []int64{1, 2, 3, -1}
	if len(order) != len(want) {
		t.Fatalf("event sequence %v, want %v", order, want)
	}

	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("event %d = %d, want %d (sequence %v)", i, order[i], want[i], order)
		}
	}
}

func TestStopSilencesAndFires(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(constantAsset(t, 48000, 0.5, 1))

	stops := countEvents(w, IDOnStop, nil)

	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 64)
	right := make([]float32, 64)
	out := [][]float32{left, right}

	w.Process(nil, out, 64)
	if left[0] != 0.5 {
		t.Fatalf("expected playback, got %v", left[0])
	}

	w.InEvent(IDStop).Invoke(value.Value{})
	w.Process(nil, out, 64)

	for i, v := range left {
		if v != 0 {
			t.Fatalf("sample %d after stop: got %v, want 0", i, v)
		}
	}

	if *stops != 1 {
		t.Fatalf("on_stop raised %d times, want 1", *stops)
	}

	if w.Playing() {
		t.Fatal("still playing after stop")
	}
}

func TestPauseToggles(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(constantAsset(t, 48000, 0.5, 1))

	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 64)
	right := make([]float32, 64)
	out := [][]float32{left, right}

	w.Process(nil, out, 64)
	posBefore := w.Position()

	w.InEvent(IDPause).Invoke(value.Value{})
	w.Process(nil, out, 64)

	if left[0] != 0 {
		t.Fatalf("paused output = %v, want 0", left[0])
	}

	if w.Position() != posBefore {
		t.Fatalf("position advanced while paused: %v -> %v", posBefore, w.Position())
	}

	// Second pause resumes.
	w.InEvent(IDPause).Invoke(value.Value{})
	w.Process(nil, out, 64)

	if left[0] != 0.5 {
		t.Fatalf("resumed output = %v, want 0.5", left[0])
	}

	if w.Position() <= posBefore {
		t.Fatal("position did not advance after resume")
	}
}

func TestIntegerPositionsReadExactSamples(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(rampAsset(t, 1000))

	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 100)
	right := make([]float32, 100)
	w.Process(nil, [][]float32{left, right}, 100)

	for i := 0; i < 100; i++ {
		if left[i] != float32(i) {
			t.Fatalf("frame %d: got %v, want %v", i, left[i], float32(i))
		}

		if right[i] != left[i] {
			t.Fatalf("frame %d: mono not duplicated (%v vs %v)", i, left[i], right[i])
		}
	}
}

func TestPitchDoublesReadRate(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(rampAsset(t, 1000))

	if err := w.Params().SetFloat(IDPitch, 2, false); err != nil {
		t.Fatal(err)
	}

	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 50)
	right := make([]float32, 50)
	w.Process(nil, [][]float32{left, right}, 50)

	for i := 0; i < 50; i++ {
		if left[i] != float32(2*i) {
			t.Fatalf("frame %d: got %v, want %v", i, left[i], float32(2*i))
		}
	}
}

func TestStereoAssetUsesBothChannels(t *testing.T) {
	w := newInitialized(t)

	l := make([]float32, 100)
	r := make([]float32, 100)
	for i := range l {
		l[i] = 0.25
		r[i] = -0.75
	}

	d, err := audiofile.New([][]float32{l, r}, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	w.SetAudioData(d)
	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 64)
	right := make([]float32, 64)
	w.Process(nil, [][]float32{left, right}, 64)

	if left[0] != 0.25 || right[0] != -0.75 {
		t.Fatalf("got L %v R %v, want 0.25 / -0.75", left[0], right[0])
	}
}

func TestPositionParameterNormalized(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(rampAsset(t, 48000))

	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 4800)
	right := make([]float32, 4800)
	w.Process(nil, [][]float32{left, right}, 4800)

	got := w.Params().GetFloat(IDPosition, -1)
	if math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("position = %v, want 0.1", got)
	}
}

func TestNoAssetPlaysSilence(t *testing.T) {
	w := newInitialized(t)

	w.InEvent(IDPlay).Invoke(value.Value{})

	left := make([]float32, 64)
	right := make([]float32, 64)
	left[3] = 42

	w.Process(nil, [][]float32{left, right}, 64)

	for i, v := range left {
		if v != 0 {
			t.Fatalf("sample %d: got %v, want 0", i, v)
		}
	}
}

func TestPlayerProcessAllocs(t *testing.T) {
	w := newInitialized(t)
	w.SetAudioData(constantAsset(t, 48000, 0.25, 1))

	if err := w.Params().SetBool(IDLoop, true); err != nil {
		t.Fatal(err)
	}

	w.InEvent(IDPlay).Invoke(value.Value{})

	out := [][]float32{make([]float32, 480), make([]float32, 480)}

	allocs := testing.AllocsPerRun(20, func() {
		w.Process(nil, out, 480)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}
