package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"void-forge/internal/audio"
)

const testRate = 8000

// writeTestWav writes a short mono 16-bit sine clip.
func writeTestWav(t *testing.T, path string, freq float64, samples int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, testRate, 16, 1, 1)
	data := make([]int, samples)
	for i := range data {
		data[i] = int(10000 * math.Sin(2*math.Pi*freq*float64(i)/testRate))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

// buildCorpus lays out root/<label>/clipN.wav and returns the root.
func buildCorpus(t *testing.T, perClass map[string]int) string {
	t.Helper()
	root := t.TempDir()
	for label, count := range perClass {
		dir := filepath.Join(root, label)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		for i := 0; i < count; i++ {
			writeTestWav(t, filepath.Join(dir, "clip"+string(rune('a'+i))+".wav"), 200+float64(i)*50, testRate/2)
		}
	}
	return root
}

func testOptions() Options {
	return Options{
		SampleRate:  testRate,
		ClipSeconds: 1,
		Transform:   audio.NewMelSpectrogram(testRate),
	}
}

func TestDiscoverClasses(t *testing.T) {
	root := buildCorpus(t, map[string]int{"bravo": 2, "alpha": 1})
	classes, mapping, err := DiscoverClasses(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(classes))
	}
	if classes[0].Label != "alpha" || classes[1].Label != "bravo" {
		t.Fatalf("labels not sorted: %v", classes)
	}
	if mapping["alpha"] != 0 || mapping["bravo"] != 1 {
		t.Fatalf("mapping not index-ordered: %v", mapping)
	}
	if len(classes[1].Files) != 2 {
		t.Fatalf("expected 2 files for bravo, got %d", len(classes[1].Files))
	}
}

func TestDiscoverClassesEmptyRoot(t *testing.T) {
	if _, _, err := DiscoverClasses(t.TempDir()); err == nil {
		t.Fatal("expected error for a root with no class directories")
	}
}

func TestVoiceDatasetFeatures(t *testing.T) {
	root := buildCorpus(t, map[string]int{"alpha": 1, "bravo": 1})
	classes, mapping, err := DiscoverClasses(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	ds, err := NewVoiceDataset(classes, mapping, testOptions())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 examples, got %d", ds.Len())
	}
	frames := 1 + testRate/audio.DefaultHopLength
	if want := audio.DefaultNMels * frames; ds.FeatureSize() != want {
		t.Fatalf("feature size %d, want %d", ds.FeatureSize(), want)
	}
}

func TestBatchLoaderEpoch(t *testing.T) {
	root := buildCorpus(t, map[string]int{"alpha": 3, "bravo": 2})
	classes, mapping, err := DiscoverClasses(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	ds, err := NewVoiceDataset(classes, mapping, testOptions())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	loader, err := NewBatchLoader(ds, 2, 2, 1)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	if loader.Len() != 3 {
		t.Fatalf("expected ceil(5/2)=3 batches, got %d", loader.Len())
	}

	batches, errs := loader.Batches(context.Background())
	seen := 0
	labelCounts := map[int]int{}
	batchCount := 0
	for batch := range batches {
		rows, cols := batch.Inputs.Dims()
		if rows != batch.Size() {
			t.Fatalf("input rows %d != labels %d", rows, batch.Size())
		}
		if cols != ds.FeatureSize() {
			t.Fatalf("feature width %d, want %d", cols, ds.FeatureSize())
		}
		for _, l := range batch.Labels {
			labelCounts[l]++
		}
		seen += batch.Size()
		batchCount++
	}
	select {
	case err := <-errs:
		t.Fatalf("epoch error: %v", err)
	default:
	}
	if seen != 5 {
		t.Fatalf("epoch yielded %d examples, want 5", seen)
	}
	if batchCount != 3 {
		t.Fatalf("epoch yielded %d batches, want 3", batchCount)
	}
	if labelCounts[0] != 3 || labelCounts[1] != 2 {
		t.Fatalf("label distribution wrong: %v", labelCounts)
	}
}

func TestBatchLoaderCancel(t *testing.T) {
	root := buildCorpus(t, map[string]int{"alpha": 4})
	classes, mapping, err := DiscoverClasses(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	ds, err := NewVoiceDataset(classes, mapping, testOptions())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	loader, err := NewBatchLoader(ds, 1, 1, 1)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	batches, _ := loader.Batches(ctx)
	<-batches
	cancel()
	for range batches {
		// drain until the pipeline notices the cancellation
	}
}
