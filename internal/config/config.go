package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	TrainRoot  string `yaml:"train_root"`
	TestRoot   string `yaml:"test_root"`
	ModelDir   string `yaml:"model_dir"`
	Device     string `yaml:"device"`
	MetricsOut string `yaml:"metrics_out"`

	BatchSize    int     `yaml:"batch_size"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`

	SampleRate  int `yaml:"sample_rate"`
	ClipSeconds int `yaml:"clip_seconds"`

	Seed       int64 `yaml:"seed"`
	NumWorkers int   `yaml:"num_workers"`
	LogEvery   int   `yaml:"log_every"`
}

// Default returns the reference-flow constants.
func Default() *Config {
	return &Config{
		ModelDir:     "models",
		Device:       "auto",
		BatchSize:    128,
		Epochs:       10,
		LearningRate: 0.001,
		Momentum:     0.9,
		SampleRate:   48000,
		ClipSeconds:  3,
		Seed:         42,
		NumWorkers:   4,
		LogEvery:     50,
	}
}

// Overrides captures CLI supplied values. Epochs uses -1 for "unset"
// because a zero-epoch run is legal.
type Overrides struct {
	TrainRoot  string
	TestRoot   string
	ModelDir   string
	Device     string
	MetricsOut string
	BatchSize  int
	Epochs     int
	LR         float64
	Seed       int64
	NumWorkers int
	LogEvery   int
}

// Load reads a Config from YAML, starting from the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any explicitly set override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.TrainRoot != "" {
		c.TrainRoot = o.TrainRoot
	}
	if o.TestRoot != "" {
		c.TestRoot = o.TestRoot
	}
	if o.ModelDir != "" {
		c.ModelDir = o.ModelDir
	}
	if o.Device != "" {
		c.Device = o.Device
	}
	if o.MetricsOut != "" {
		c.MetricsOut = o.MetricsOut
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Epochs >= 0 {
		c.Epochs = o.Epochs
	}
	if o.LR > 0 {
		c.LearningRate = o.LR
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.NumWorkers > 0 {
		c.NumWorkers = o.NumWorkers
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
}

// Validate verifies the config is runnable, defaulting soft knobs.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.TrainRoot == "" {
		return errors.New("train_root must be set")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Epochs < 0 {
		return fmt.Errorf("epochs must be >= 0 (got %d)", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0,1) (got %g)", c.Momentum)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be > 0 (got %d)", c.SampleRate)
	}
	if c.ClipSeconds <= 0 {
		return fmt.Errorf("clip_seconds must be > 0 (got %d)", c.ClipSeconds)
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	if c.ModelDir == "" {
		c.ModelDir = "models"
	}
	return nil
}
