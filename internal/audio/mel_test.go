package audio

import (
	"math"
	"testing"
)

func TestMelSpectrogramShape(t *testing.T) {
	m := NewMelSpectrogram(16000)
	wave := make([]float64, 16000)
	spec, err := m.Apply(wave)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, cols := spec.Dims()
	if rows != DefaultNMels {
		t.Fatalf("expected %d mel rows, got %d", DefaultNMels, rows)
	}
	wantFrames := 1 + len(wave)/DefaultHopLength
	if cols != wantFrames {
		t.Fatalf("expected %d frames, got %d", wantFrames, cols)
	}
}

func TestMelSpectrogramSilenceIsZero(t *testing.T) {
	m := NewMelSpectrogram(16000)
	spec, err := m.Apply(make([]float64, 4096))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, cols := spec.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if spec.At(i, j) != 0 {
				t.Fatalf("silence produced energy at (%d,%d): %f", i, j, spec.At(i, j))
			}
		}
	}
}

func TestMelSpectrogramToneHasEnergy(t *testing.T) {
	const sr = 16000
	m := NewMelSpectrogram(sr)
	wave := make([]float64, sr)
	for i := range wave {
		wave[i] = math.Sin(2 * math.Pi * 440 * float64(i) / sr)
	}
	spec, err := m.Apply(wave)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	total := 0.0
	rows, cols := spec.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := spec.At(i, j)
			if v < 0 {
				t.Fatalf("negative power at (%d,%d): %f", i, j, v)
			}
			total += v
		}
	}
	if total == 0 {
		t.Fatal("pure tone produced an all-zero spectrogram")
	}
}

func TestMelSpectrogramDeterministic(t *testing.T) {
	m := NewMelSpectrogram(16000)
	wave := make([]float64, 2048)
	for i := range wave {
		wave[i] = math.Sin(float64(i) / 10)
	}
	a, err := m.Apply(wave)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	b, err := m.Apply(wave)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, cols := a.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if a.At(i, j) != b.At(i, j) {
				t.Fatalf("transform not deterministic at (%d,%d)", i, j)
			}
		}
	}
}

func TestMelSpectrogramRejectsEmptyWave(t *testing.T) {
	m := NewMelSpectrogram(16000)
	if _, err := m.Apply(nil); err == nil {
		t.Fatal("expected error for empty waveform")
	}
}
