// Command render decodes an audio file, runs it offline through a
// player -> mixer -> lowpass -> compressor graph, and writes the result
// as a 16-bit mono WAV.
//
// Usage:
//
//	render -in input.mp3 [flags]
//
// Examples:
//
//	render -in voice.wav -out voice_rendered.wav
//	render -in song.ogg -cutoff 4000 -threshold -24 -ratio 6
//	render -in loop.wav -pitch 1.5 -rate 44100
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-soundgraph/audiofile"
	"github.com/cwbudde/algo-soundgraph/graph"
	"github.com/cwbudde/algo-soundgraph/node/dynamics"
	"github.com/cwbudde/algo-soundgraph/node/filter"
	"github.com/cwbudde/algo-soundgraph/node/mix"
	"github.com/cwbudde/algo-soundgraph/node/player"
	"github.com/cwbudde/algo-soundgraph/value"
)

func main() {
	var (
		inPath    = flag.String("in", "", "input audio file (wav, aiff, mp3, ogg)")
		outPath   = flag.String("out", "render.wav", "output WAV path")
		rate      = flag.Float64("rate", 0, "render sample rate (0 = asset rate)")
		blockSize = flag.Int("block", 512, "processing block size in frames")
		pitch     = flag.Float64("pitch", 1, "playback pitch ratio")
		cutoff    = flag.Float64("cutoff", 8000, "lowpass cutoff in Hz")
		threshold = flag.Float64("threshold", -18, "compressor threshold in dB")
		ratio     = flag.Float64("ratio", 3, "compressor ratio")
		tail      = flag.Float64("tail", 0.25, "extra seconds rendered after playback ends")
	)

	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*inPath, *outPath, *rate, *blockSize, *pitch, *cutoff, *threshold, *ratio, *tail); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath string, rate float64, blockSize int, pitch, cutoff, threshold, ratio, tail float64) error {
	data, err := audiofile.Load(inPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}

	if rate <= 0 {
		rate = data.SampleRate()
	}

	fmt.Printf("%s: %d channels, %d frames at %.0f Hz (%.2fs)\n",
		inPath, data.NumChannels(), data.NumFrames(), data.SampleRate(), data.Duration().Seconds())

	wp, err := player.NewWavePlayer()
	if err != nil {
		return err
	}

	wp.SetAudioData(data)

	downmix, err := mix.NewMixer(2)
	if err != nil {
		return err
	}

	lp, err := filter.NewLowPass()
	if err != nil {
		return err
	}

	comp, err := dynamics.NewCompressor()
	if err != nil {
		return err
	}

	g := graph.New(graph.WithLogger(log.Default()))

	src, err := g.AddNode(wp)
	if err != nil {
		return err
	}

	mixID, err := g.AddNode(downmix)
	if err != nil {
		return err
	}

	fltID, err := g.AddNode(lp)
	if err != nil {
		return err
	}

	sink, err := g.AddNode(comp)
	if err != nil {
		return err
	}

	for _, c := range []struct{ from, to string }{
		{"left", "in_0"},
		{"right", "in_1"},
	} {
		if err := g.ConnectStream(src, c.from, mixID, c.to); err != nil {
			return err
		}
	}

	if err := g.ConnectStream(mixID, "out", fltID, "in"); err != nil {
		return err
	}

	if err := g.ConnectStream(fltID, "out", sink, "in"); err != nil {
		return err
	}

	if err := g.Initialize(rate, blockSize); err != nil {
		return err
	}

	settings := []struct {
		node  graph.NodeID
		name  string
		value float64
	}{
		{src, "pitch", pitch},
		{mixID, "level_0", 0.5},
		{mixID, "level_1", 0.5},
		{fltID, "cutoff", cutoff},
		{sink, "threshold_db", threshold},
		{sink, "ratio", ratio},
	}
	for _, s := range settings {
		if err := g.SetParameter(s.node, s.name, s.value, false); err != nil {
			return err
		}
	}

	if err := g.SendEvent(src, "play", value.Value{}); err != nil {
		return err
	}

	tailFrames := int(tail * rate)
	block := make([]float32, blockSize)
	rendered := make([]float32, 0, data.NumFrames()+tailFrames)

	for done := 0; wp.Playing() || done < tailFrames; {
		if err := g.ProcessBlock(block, blockSize); err != nil {
			return err
		}

		rendered = append(rendered, block...)
		if !wp.Playing() {
			done += blockSize
		}
	}

	if err := writeWAV(outPath, rendered, int(rate)); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d frames (%.2fs)\n", outPath, len(rendered), float64(len(rendered))/rate)

	return nil
}

// writeWAV encodes mono float32 samples as 16-bit PCM.
func writeWAV(path string, samples []float32, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}

	for i, v := range samples {
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}

		buf.Data[i] = int(v * 32767)
	}

	if err := enc.Write(buf); err != nil {
		return err
	}

	return enc.Close()
}
