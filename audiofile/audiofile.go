// Package audiofile loads PCM audio assets for the wave player. WAV and
// AIFF decode through the go-audio stack, MP3 through go-mp3 and Ogg
// Vorbis through oggvorbis; all formats land in the same non-interleaved
// float32 Data representation.
package audiofile

import (
	"errors"
	"fmt"
	"time"
)

// Error sentinels for asset loading.
var (
	ErrDecodeFailed       = errors.New("audiofile: decode failed")
	ErrUnsupportedFormat  = errors.New("audiofile: unsupported format")
	ErrInvalidChannelData = errors.New("audiofile: invalid channel data")
)

// Data is an immutable decoded audio asset: one sample slice per
// channel, all the same length.
type Data struct {
	channels   [][]float32
	sampleRate float64
}

// New builds a Data from non-interleaved channel slices. All channels
// must be non-empty and equally long.
func New(channels [][]float32, sampleRate float64) (*Data, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidChannelData)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidChannelData, sampleRate)
	}

	frames := len(channels[0])
	if frames == 0 {
		return nil, fmt.Errorf("%w: empty channel", ErrInvalidChannelData)
	}

	for i, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d",
				ErrInvalidChannelData, i, len(ch), frames)
		}
	}

	return &Data{channels: channels, sampleRate: sampleRate}, nil
}

// NumChannels returns the channel count.
func (d *Data) NumChannels() int { return len(d.channels) }

// NumFrames returns the per-channel frame count.
func (d *Data) NumFrames() int { return len(d.channels[0]) }

// SampleRate returns the asset sample rate in Hz.
func (d *Data) SampleRate() float64 { return d.sampleRate }

// Duration returns the asset length as wall time.
func (d *Data) Duration() time.Duration {
	secs := float64(d.NumFrames()) / d.sampleRate
	return time.Duration(secs * float64(time.Second))
}

// Channel returns the sample slice for channel ch. Callers must not
// mutate it.
func (d *Data) Channel(ch int) []float32 { return d.channels[ch] }

// Sample reads channel ch at frame i, returning 0 out of bounds.
func (d *Data) Sample(ch, frame int) float32 {
	if ch < 0 || ch >= len(d.channels) {
		return 0
	}

	if frame < 0 || frame >= len(d.channels[ch]) {
		return 0
	}

	return d.channels[ch][frame]
}

// fromInterleaved splits interleaved samples into channel slices.
func fromInterleaved(samples []float32, numChannels int, sampleRate float64) (*Data, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidChannelData, numChannels)
	}

	frames := len(samples) / numChannels
	if frames == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrInvalidChannelData)
	}

	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			channels[c][i] = samples[i*numChannels+c]
		}
	}

	return New(channels, sampleRate)
}
