package dataset

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"void-forge/internal/audio"
)

// Options configures how raw clips become feature vectors.
type Options struct {
	SampleRate  int
	ClipSeconds int
	Transform   audio.Transform
}

type example struct {
	path  string
	label int
}

// VoiceDataset owns the labeled clip list and derives model features
// on demand: decode, resample, mix down, fit to the clip length, apply
// the spectrogram transform, flatten.
type VoiceDataset struct {
	examples    []example
	mapping     LabelMapping
	opts        Options
	clipSamples int
	featureSize int
}

// NewVoiceDataset builds a dataset from discovered classes.
func NewVoiceDataset(classes []Class, mapping LabelMapping, opts Options) (*VoiceDataset, error) {
	if opts.SampleRate <= 0 {
		return nil, errors.New("dataset: sample rate must be > 0")
	}
	if opts.ClipSeconds <= 0 {
		return nil, errors.New("dataset: clip length must be > 0")
	}
	if opts.Transform == nil {
		return nil, errors.New("dataset: transform is required")
	}

	var examples []example
	for _, c := range classes {
		idx, ok := mapping[c.Label]
		if !ok {
			return nil, fmt.Errorf("dataset: label %q missing from mapping", c.Label)
		}
		for _, f := range c.Files {
			examples = append(examples, example{path: f, label: idx})
		}
	}
	if len(examples) == 0 {
		return nil, errors.New("dataset: no audio files found")
	}

	ds := &VoiceDataset{
		examples:    examples,
		mapping:     mapping,
		opts:        opts,
		clipSamples: opts.SampleRate * opts.ClipSeconds,
	}

	// Probe one example so the feature size is known up front.
	features, err := ds.load(0)
	if err != nil {
		return nil, err
	}
	ds.featureSize = len(features)
	return ds, nil
}

// Len returns the number of examples.
func (d *VoiceDataset) Len() int { return len(d.examples) }

// Mapping returns the label mapping shared with the model artifact.
func (d *VoiceDataset) Mapping() LabelMapping { return d.mapping }

// FeatureSize returns the flattened feature-vector length.
func (d *VoiceDataset) FeatureSize() int { return d.featureSize }

// load decodes and transforms the example at index i.
func (d *VoiceDataset) load(i int) ([]float64, error) {
	ex := d.examples[i]
	channels, sourceRate, err := decodeWav(ex.path)
	if err != nil {
		return nil, err
	}

	wave := audio.MixDown(channels)
	wave = audio.Resample(wave, sourceRate, d.opts.SampleRate)
	wave = audio.FitLength(wave, d.clipSamples)

	spec, err := d.opts.Transform.Apply(wave)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", ex.path, err)
	}
	rows, cols := spec.Dims()
	features := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		features = append(features, spec.RawRowView(r)...)
	}
	return features, nil
}

// decodeWav reads a WAV file into per-channel float samples in [-1, 1].
func decodeWav(path string) ([][]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("decode %s: empty PCM payload", path)
	}

	numChans := buf.Format.NumChannels
	if numChans <= 0 {
		numChans = 1
	}
	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))

	frames := len(buf.Data) / numChans
	channels := make([][]float64, numChans)
	for c := range channels {
		channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChans; c++ {
			channels[c][i] = float64(buf.Data[i*numChans+c]) * scale
		}
	}
	return channels, buf.Format.SampleRate, nil
}
