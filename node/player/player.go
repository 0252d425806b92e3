// Package player provides the wave player node: pitch-variable, loopable
// stereo playback of a decoded audiofile.Data asset, controlled by
// play/stop/pause events.
package player

import (
	"github.com/cwbudde/algo-soundgraph/audiofile"
	"github.com/cwbudde/algo-soundgraph/dsp/interp"
	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
	"github.com/cwbudde/algo-soundgraph/value"
)

// TypeWavePlayer identifies the wave player node type.
var TypeWavePlayer = ident.New("player.wave")

// Parameter and event identifiers for the wave player.
var (
	IDVolume     = ident.New("volume")
	IDPitch      = ident.New("pitch")
	IDStartTimeS = ident.New("start_time_s")
	IDLoop       = ident.New("loop")
	IDLoopCount  = ident.New("loop_count")
	IDLoopStartS = ident.New("loop_start_s")
	IDLoopEndS   = ident.New("loop_end_s")
	IDPosition   = ident.New("position")
	IDPlay       = ident.New("play")
	IDStop       = ident.New("stop")
	IDPause      = ident.New("pause")
	IDOnPlay     = ident.New("on_play")
	IDOnStop     = ident.New("on_stop")
	IDOnFinish   = ident.New("on_finish")
	IDOnLoop     = ident.New("on_loop")
)

// WavePlayer renders an audio asset to a stereo pair. Mono assets are
// duplicated to both channels; assets with more than two channels play
// channels 0 and 1.
type WavePlayer struct {
	node.Base

	data *audiofile.Data

	playing     bool
	paused      bool
	position    float64 // asset frames
	currentLoop int64

	playFlag  event.Flag
	stopFlag  event.Flag
	pauseFlag event.Flag

	onPlay   *event.OutputEvent
	onStop   *event.OutputEvent
	onFinish *event.OutputEvent
	onLoop   *event.OutputEvent

	// preallocated payloads so Process stays allocation free
	loopPayload value.Value
	flagPayload value.Value
}

// NewWavePlayer returns a stopped player with unit volume and pitch.
func NewWavePlayer() (*WavePlayer, error) {
	w := &WavePlayer{
		loopPayload: value.I64(0),
		flagPayload: value.Bool(true),
	}
	w.Base = node.NewBase()

	p := w.Params()
	for _, reg := range []error{
		p.AddInterpolatedFloatRange(IDVolume, "volume", 1, 0, 4),
		p.AddFloatRange(IDPitch, "pitch", 1, 0.01, 16),
		p.AddFloatRange(IDStartTimeS, "start_time_s", 0, 0, 3600),
		p.AddBool(IDLoop, "loop", false),
		p.AddInt(IDLoopCount, "loop_count", -1),
		p.AddFloatRange(IDLoopStartS, "loop_start_s", 0, 0, 3600),
		p.AddFloat(IDLoopEndS, "loop_end_s", -1),
		p.AddFloat(IDPosition, "position", 0),
	} {
		if reg != nil {
			return nil, reg
		}
	}

	for _, in := range []struct {
		id   ident.ID
		flag *event.Flag
	}{
		{IDPlay, &w.playFlag},
		{IDStop, &w.stopFlag},
		{IDPause, &w.pauseFlag},
	} {
		if err := w.AddInEvent(in.id, event.NewInput(event.FlagTrigger(in.flag))); err != nil {
			return nil, err
		}
	}

	var err error
	for _, out := range []struct {
		id  ident.ID
		dst **event.OutputEvent
	}{
		{IDOnPlay, &w.onPlay},
		{IDOnStop, &w.onStop},
		{IDOnFinish, &w.onFinish},
		{IDOnLoop, &w.onLoop},
	} {
		if *out.dst, err = w.AddOutEvent(out.id); err != nil {
			return nil, err
		}
	}

	return w, nil
}

func (w *WavePlayer) TypeID() ident.ID { return TypeWavePlayer }

func (w *WavePlayer) DisplayName() string { return "Wave Player" }

func (w *WavePlayer) Initialize(sampleRate float64, maxBlock int) error {
	return w.Configure(sampleRate, maxBlock)
}

// SetAudioData installs the asset to play. Graph-build operation, not
// safe concurrently with Process.
func (w *WavePlayer) SetAudioData(d *audiofile.Data) {
	w.data = d
	w.position = 0
	w.currentLoop = 0
	w.playing = false
}

// AudioData returns the installed asset, or nil.
func (w *WavePlayer) AudioData() *audiofile.Data { return w.data }

// Playing reports whether playback is active (possibly paused).
func (w *WavePlayer) Playing() bool { return w.playing }

// Position reports the playback position in asset frames.
func (w *WavePlayer) Position() float64 { return w.position }

// Reset stops playback and rewinds without touching parameters.
func (w *WavePlayer) Reset() {
	w.playing = false
	w.paused = false
	w.position = 0
	w.currentLoop = 0
	w.playFlag.CheckAndResetIfDirty()
	w.stopFlag.CheckAndResetIfDirty()
	w.pauseFlag.CheckAndResetIfDirty()
}

func (w *WavePlayer) StreamInputs() []string { return nil }

func (w *WavePlayer) StreamOutputs() []string { return []string{"left", "right"} }

func (w *WavePlayer) consumeEvents() {
	p := w.Params()

	if w.playFlag.CheckAndResetIfDirty() {
		w.playing = true
		w.paused = false
		w.currentLoop = 0
		w.position = p.GetFloat(IDStartTimeS, 0) * w.assetRate()
		w.onPlay.Invoke(w.flagPayload)
	}

	if w.stopFlag.CheckAndResetIfDirty() && w.playing {
		w.playing = false
		w.paused = false
		w.position = 0
		w.onStop.Invoke(w.flagPayload)
	}

	// Pause toggles; it does not latch.
	if w.pauseFlag.CheckAndResetIfDirty() && w.playing {
		w.paused = !w.paused
	}
}

func (w *WavePlayer) assetRate() float64 {
	if w.data == nil {
		return w.SampleRate()
	}

	return w.data.SampleRate()
}

func (w *WavePlayer) Process(in, out [][]float32, n int) {
	_ = in

	var left, right []float32
	if len(out) > 0 {
		left = out[0]
	}

	if len(out) > 1 {
		right = out[1]
	}

	if !w.Ready() {
		zero(left, n)
		zero(right, n)

		return
	}

	w.consumeEvents()

	p := w.Params()
	data := w.data

	var (
		frames    int
		assetRate float64
		step      float64
	)

	if data != nil {
		frames = data.NumFrames()
		assetRate = data.SampleRate()
	}

	looping := p.GetBool(IDLoop, false)
	loopCount := p.GetInt(IDLoopCount, -1)
	loopStart := p.GetFloat(IDLoopStartS, 0) * assetRate
	loopEnd := p.GetFloat(IDLoopEndS, -1)

	maxPos := float64(frames)
	if looping && loopEnd >= 0 && loopEnd*assetRate < maxPos {
		maxPos = loopEnd * assetRate
	}

	for i := 0; i < n; i++ {
		p.Advance()

		volume := p.GetFloat(IDVolume, 1)
		step = p.GetFloat(IDPitch, 1) * assetRate / w.SampleRate()

		if !w.playing || w.paused || data == nil {
			writeFrame(left, right, i, 0, 0)
			continue
		}

		if w.position >= maxPos {
			if looping && (loopCount < 0 || w.currentLoop < loopCount) {
				w.currentLoop++
				w.position = loopStart

				if w.position >= maxPos { // degenerate loop window
					w.position = 0
				}

				_ = w.loopPayload.SetI64(w.currentLoop)
				w.onLoop.Invoke(w.loopPayload)
			} else {
				w.playing = false
				w.position = 0
				w.onFinish.Invoke(w.flagPayload)
				writeFrame(left, right, i, 0, 0)

				continue
			}
		}

		l, r := w.sampleAt(data, w.position, frames)
		writeFrame(left, right, i, l*float32(volume), r*float32(volume))

		w.position += step
	}

	w.publishPosition(frames)
}

// sampleAt reads the asset at a fractional frame with linear
// interpolation. Integer positions read exact frames.
func (w *WavePlayer) sampleAt(data *audiofile.Data, pos float64, frames int) (float32, float32) {
	i0 := int(pos)
	frac := float32(pos - float64(i0))

	rightCh := 0
	if data.NumChannels() > 1 {
		rightCh = 1
	}

	l0 := data.Sample(0, i0)
	r0 := data.Sample(rightCh, i0)

	if frac == 0 || i0+1 >= frames {
		return l0, r0
	}

	l1 := data.Sample(0, i0+1)
	r1 := data.Sample(rightCh, i0+1)

	return interp.Linear32(float64(frac), l0, l1), interp.Linear32(float64(frac), r0, r1)
}

func (w *WavePlayer) publishPosition(frames int) {
	norm := 0.0
	if w.playing && frames > 0 {
		norm = w.position / float64(frames)
	}

	_ = w.Params().SetFloat(IDPosition, norm, false)
}

func writeFrame(left, right []float32, i int, l, r float32) {
	if i < len(left) {
		left[i] = l
	}

	if i < len(right) {
		right[i] = r
	}
}

func zero(dst []float32, n int) {
	for i := 0; i < n && i < len(dst); i++ {
		dst[i] = 0
	}
}
