package audio

import (
	"math"
	"testing"
)

func TestResampleIdentity(t *testing.T) {
	wave := []float64{0.1, 0.2, 0.3}
	got := Resample(wave, 48000, 48000)
	if len(got) != 3 || got[0] != 0.1 {
		t.Fatalf("identity resample altered the wave: %v", got)
	}
}

func TestResampleHalvesLength(t *testing.T) {
	wave := make([]float64, 1000)
	got := Resample(wave, 48000, 24000)
	if len(got) != 500 {
		t.Fatalf("expected 500 samples, got %d", len(got))
	}
}

func TestResampleInterpolates(t *testing.T) {
	// Upsampling a ramp stays a ramp.
	wave := []float64{0, 1, 2, 3}
	got := Resample(wave, 100, 200)
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("upsampled ramp not monotonic at %d: %v", i, got)
		}
	}
}

func TestMixDown(t *testing.T) {
	mono := MixDown([][]float64{{1, 2, 3}})
	if len(mono) != 3 || mono[1] != 2 {
		t.Fatalf("mono passthrough failed: %v", mono)
	}
	mixed := MixDown([][]float64{{1, 1}, {3, 3}})
	if math.Abs(mixed[0]-2) > 1e-12 {
		t.Fatalf("expected channel mean 2, got %v", mixed)
	}
}

func TestFitLength(t *testing.T) {
	wave := []float64{1, 2, 3}
	padded := FitLength(wave, 5)
	if len(padded) != 5 || padded[4] != 0 {
		t.Fatalf("padding failed: %v", padded)
	}
	trimmed := FitLength(wave, 2)
	if len(trimmed) != 2 || trimmed[1] != 2 {
		t.Fatalf("truncation failed: %v", trimmed)
	}
}
