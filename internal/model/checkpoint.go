package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Meta is the auxiliary metadata persisted alongside the weights.
// Labels is an explicit field of the artifact, not an attribute the
// serializer happens to pick up.
type Meta struct {
	Labels      map[string]int
	SampleRate  int
	ClipSeconds int
}

// Checkpoint is the gob document written to durable storage.
type Checkpoint struct {
	ClassCount int
	InputSize  int
	HiddenSize int
	Dropout    float64
	Meta       Meta

	W1, B1, W2, B2 []float64
}

// ErrNoLabels indicates a save was attempted without a label mapping.
var ErrNoLabels = errors.New("model: checkpoint requires a label mapping")

// ArtifactPath names a model artifact under dir using the run timestamp.
func ArtifactPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("void_%s.gob", t.Format("20060102_150405")))
}

// Save serializes the network and metadata to path.
func Save(path string, net *VoiceNet, meta Meta) error {
	if len(meta.Labels) == 0 {
		return ErrNoLabels
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	defer f.Close()

	cp := Checkpoint{
		ClassCount: net.numClasses,
		InputSize:  net.inputSize,
		HiddenSize: net.hiddenSize,
		Dropout:    net.dropout,
		Meta:       meta,
		W1:         rawData(net.w1.Value),
		B1:         rawData(net.b1.Value),
		W2:         rawData(net.w2.Value),
		B2:         rawData(net.b2.Value),
	}
	if err := gob.NewEncoder(f).Encode(cp); err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return nil
}

// Load restores a network and its metadata from path.
func Load(path string) (*VoiceNet, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	var cp Checkpoint
	if err := gob.NewDecoder(f).Decode(&cp); err != nil {
		return nil, Meta{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	if len(cp.Meta.Labels) == 0 {
		return nil, Meta{}, ErrNoLabels
	}
	if len(cp.Meta.Labels) != cp.ClassCount {
		return nil, Meta{}, fmt.Errorf("model: %d labels for %d classes", len(cp.Meta.Labels), cp.ClassCount)
	}

	net := NewVoiceNet(cp.ClassCount, cp.InputSize, cp.HiddenSize, cp.Dropout, 0)
	for _, w := range []struct {
		dst  *mat.Dense
		data []float64
		name string
	}{
		{net.w1.Value, cp.W1, "w1"},
		{net.b1.Value, cp.B1, "b1"},
		{net.w2.Value, cp.W2, "w2"},
		{net.b2.Value, cp.B2, "b2"},
	} {
		r, c := w.dst.Dims()
		if len(w.data) != r*c {
			return nil, Meta{}, fmt.Errorf("model: %s has %d values, want %d", w.name, len(w.data), r*c)
		}
		copy(w.dst.RawMatrix().Data, w.data)
	}
	return net, cp.Meta, nil
}

func rawData(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	out := make([]float64, len(raw.Data))
	copy(out, raw.Data)
	return out
}
