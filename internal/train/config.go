package train

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/propnet-ml/propnet/internal/optim"
)

// Config holds the training-loop hyperparameters. It marshals to JSON so
// runs can be reproduced from a config file.
type Config struct {
	// Epochs is the number of full passes over the training set.
	Epochs int `json:"epochs"`

	// BatchSize is the number of samples per parameter update.
	BatchSize int `json:"batchSize"`

	// ValidationSplit is the fraction of the dataset held out for
	// validation, in [0, 1). The held-out rows come from the tail.
	ValidationSplit float64 `json:"validationSplit,omitempty"`

	// Shuffle reorders the training rows before every epoch.
	Shuffle bool `json:"shuffle,omitempty"`

	// LogEvery prints metrics every n epochs. Zero disables logging.
	LogEvery int `json:"logEvery,omitempty"`

	// Seed feeds the shuffling RNG, making runs reproducible.
	Seed int64 `json:"seed,omitempty"`
}

func (c Config) validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("train: epochs must be positive, got %d: %w",
			c.Epochs, optim.ErrInvalidHyperparameter)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("train: batch size must be positive, got %d: %w",
			c.BatchSize, optim.ErrInvalidHyperparameter)
	}
	if c.ValidationSplit < 0 || c.ValidationSplit >= 1 {
		return fmt.Errorf("train: validation split must lie in [0, 1), got %g: %w",
			c.ValidationSplit, optim.ErrInvalidHyperparameter)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("train: log interval must not be negative, got %d: %w",
			c.LogEvery, optim.ErrInvalidHyperparameter)
	}
	return nil
}

// String formats the config as indented JSON.
func (c Config) String() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}

// SaveFile writes the config as JSON.
func (c Config) SaveFile(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("train: encode config: %w", err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// LoadConfig reads a JSON config file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("train: read config: %w", err)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("train: decode config %s: %w", path, err)
	}
	return c, nil
}
