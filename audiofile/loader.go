package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// SupportedExtensions lists the container extensions hosts may offer in
// file pickers. The list is advisory: actual capability is whatever the
// linked decoders provide, and Load rejects the rest with
// ErrUnsupportedFormat.
var SupportedExtensions = []string{
	".wav", ".wave", ".aif", ".aiff", ".aifc", ".mp3", ".ogg", ".oga",
	".flac", ".m4a", ".aac", ".wma",
}

// Format enumerates the supported container formats.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatAIFF
	FormatMP3
	FormatOgg
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatAIFF:
		return "aiff"
	case FormatMP3:
		return "mp3"
	case FormatOgg:
		return "ogg"
	default:
		return "unknown"
	}
}

// FormatForPath guesses the format from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".aif", ".aiff", ".aifc":
		return FormatAIFF
	case ".mp3":
		return FormatMP3
	case ".ogg", ".oga":
		return FormatOgg
	default:
		return FormatUnknown
	}
}

// Load opens and decodes the file at path, picking the decoder from the
// extension.
func Load(path string) (*Data, error) {
	format := FormatForPath(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: open %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f, format)
}

// Decode reads one complete asset from r in the given format.
func Decode(r io.ReadSeeker, format Format) (*Data, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatAIFF:
		return decodeAIFF(r)
	case FormatMP3:
		return decodeMP3(r)
	case FormatOgg:
		return decodeOgg(r)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

func decodeWAV(r io.ReadSeeker) (*Data, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrDecodeFailed)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	return intBufferToData(buf.Data, int(dec.NumChans), int(dec.BitDepth), float64(dec.SampleRate))
}

func decodeAIFF(r io.ReadSeeker) (*Data, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an aiff file", ErrDecodeFailed)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	return intBufferToData(buf.Data, int(dec.NumChans), int(dec.BitDepth), float64(dec.SampleRate))
}

// decodeMP3 drains the go-mp3 stream, which always yields 16-bit
// little-endian stereo PCM.
func decodeMP3(r io.ReadSeeker) (*Data, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	const channels = 2

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(v) / 32768
	}

	return fromInterleaved(samples, channels, float64(dec.SampleRate()))
}

func decodeOgg(r io.ReadSeeker) (*Data, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	return fromInterleaved(samples, format.Channels, float64(format.SampleRate))
}

// intBufferToData converts go-audio integer PCM to normalized floats.
func intBufferToData(data []int, numChannels, bitDepth int, sampleRate float64) (*Data, error) {
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: bit depth %d", ErrDecodeFailed, bitDepth)
	}

	scale := float32(int64(1) << uint(bitDepth-1))

	samples := make([]float32, len(data))
	for i, v := range data {
		samples[i] = float32(v) / scale
	}

	return fromInterleaved(samples, numChannels, sampleRate)
}
