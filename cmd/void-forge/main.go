package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"void-forge/internal/audio"
	"void-forge/internal/config"
	"void-forge/internal/dataset"
	"void-forge/internal/device"
	"void-forge/internal/metrics"
	"void-forge/internal/model"
	"void-forge/internal/nn"
	"void-forge/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/train.yaml", "Path to YAML config")
	trainRoot := flag.String("train-root", "", "Override training data root")
	testRoot := flag.String("test-root", "", "Override held-out data root")
	modelDir := flag.String("model-dir", "", "Override model artifact directory")
	devicePref := flag.String("device", "", "Device preference: cpu, accel, auto")
	metricsOut := flag.String("metrics-out", "", "Override metrics JSONL path")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	epochs := flag.Int("epochs", -1, "Number of epochs")
	lr := flag.Float64("lr", 0, "Learning rate")
	seed := flag.Int64("seed", 0, "PRNG seed")
	numWorkers := flag.Int("num-workers", 0, "Number of data loader workers")
	logEvery := flag.Int("log-every", 0, "Log every N batches")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		TrainRoot:  *trainRoot,
		TestRoot:   *testRoot,
		ModelDir:   *modelDir,
		Device:     *devicePref,
		MetricsOut: *metricsOut,
		BatchSize:  *batchSize,
		Epochs:     *epochs,
		LR:         *lr,
		Seed:       *seed,
		NumWorkers: *numWorkers,
		LogEvery:   *logEvery,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	dev, err := device.Select(cfg.Device)
	if err != nil {
		log.Fatalf("select device: %v", err)
	}
	log.Printf("using %s device", dev)

	opts := dataset.Options{
		SampleRate:  cfg.SampleRate,
		ClipSeconds: cfg.ClipSeconds,
		Transform:   audio.NewMelSpectrogram(cfg.SampleRate),
	}

	trainLoader, mapping, featureSize := buildLoader(cfg.TrainRoot, opts, cfg)
	log.Printf("root=%s classes=%d", cfg.TrainRoot, len(mapping))

	var validation dataset.Loader
	if cfg.TestRoot != "" {
		testLoader, testMapping, _ := buildLoader(cfg.TestRoot, opts, cfg)
		if len(testMapping) != len(mapping) {
			log.Fatalf("test split has %d classes, train split has %d", len(testMapping), len(mapping))
		}
		validation = testLoader
	}

	net := model.NewVoiceNet(len(mapping), featureSize, 256, 0.3, cfg.Seed)
	opt := nn.NewSGD(cfg.LearningRate, cfg.Momentum)

	var logger metrics.Logger = metrics.NopLogger{}
	if cfg.MetricsOut != "" {
		runLogger, err := metrics.OpenRunLogger(cfg.MetricsOut)
		if err != nil {
			log.Fatalf("open metrics log: %v", err)
		}
		defer runLogger.Close()
		log.Printf("run=%s metrics=%s", runLogger.RunID(), cfg.MetricsOut)
		logger = runLogger
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := trainer.Run(ctx, trainer.RunOptions{
		Net:        net,
		Loss:       nn.CrossEntropy{},
		Opt:        opt,
		Device:     dev,
		Train:      trainLoader,
		Validation: validation,
		Epochs:     cfg.Epochs,
		Logger:     logger,
		LogEvery:   cfg.LogEvery,
	}); err != nil {
		log.Fatalf("training failed: %v", err)
	}

	artifact := model.ArtifactPath(cfg.ModelDir, time.Now())
	meta := model.Meta{
		Labels:      mapping,
		SampleRate:  cfg.SampleRate,
		ClipSeconds: cfg.ClipSeconds,
	}
	if err := model.Save(artifact, net, meta); err != nil {
		log.Fatalf("save model: %v", err)
	}
	log.Printf("trained model saved at %s", artifact)
}

func buildLoader(root string, opts dataset.Options, cfg *config.Config) (dataset.Loader, dataset.LabelMapping, int) {
	classes, mapping, err := dataset.DiscoverClasses(root)
	if err != nil {
		log.Fatalf("discover classes under %s: %v", root, err)
	}
	ds, err := dataset.NewVoiceDataset(classes, mapping, opts)
	if err != nil {
		log.Fatalf("build dataset under %s: %v", root, err)
	}
	loader, err := dataset.NewBatchLoader(ds, cfg.BatchSize, cfg.NumWorkers, cfg.Seed)
	if err != nil {
		log.Fatalf("build loader under %s: %v", root, err)
	}
	return loader, mapping, ds.FeatureSize()
}
