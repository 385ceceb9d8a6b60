package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Propagation is the texture propagation model configuration, loaded from the
// YAML file passed as a positional command-line argument. It mirrors the
// hyperparameters the GNN was trained with, so it must match the checkpoint.
type Propagation struct {
	// EmbeddingDim is the size of the texture embedding vectors.
	EmbeddingDim int `yaml:"embedding_dim"`

	// StateDim is the hidden state width per graph node.
	StateDim int `yaml:"state_dim"`

	// MessageDim is the width of messages sent across edges.
	MessageDim int `yaml:"message_dim"`

	// NumRounds is the number of message-passing rounds.
	NumRounds int `yaml:"num_rounds"`

	// BatchSize is the number of houses per graph batch.
	BatchSize int `yaml:"batch_size"`

	// TrainGraphGenerator and ValGraphGenerator name the graph construction
	// policies used at train and validation time. Resolved through the
	// graphgen registry when the corresponding CLI flag is set.
	TrainGraphGenerator string `yaml:"train_graph_generator"`
	ValGraphGenerator   string `yaml:"val_graph_generator"`

	// MaskFraction is the fraction of observed surfaces the train graph
	// generator hides to create supervision targets.
	MaskFraction float64 `yaml:"mask_fraction"`
}

// LoadPropagation reads and validates a propagation model configuration.
func LoadPropagation(path string) (*Propagation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read propagation config %s: %w", path, err)
	}

	conf := defaultPropagation()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("failed to parse propagation config %s: %w", path, err)
	}
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("invalid propagation config %s: %w", path, err)
	}
	return conf, nil
}

func defaultPropagation() *Propagation {
	return &Propagation{
		EmbeddingDim:        16,
		StateDim:            128,
		MessageDim:          128,
		NumRounds:           2,
		BatchSize:           8,
		TrainGraphGenerator: "train",
		ValGraphGenerator:   "val",
		MaskFraction:        0.3,
	}
}

func (p *Propagation) validate() error {
	if p.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding_dim must be positive, got %d", p.EmbeddingDim)
	}
	if p.StateDim <= 0 || p.MessageDim <= 0 {
		return fmt.Errorf("state_dim and message_dim must be positive, got %d and %d", p.StateDim, p.MessageDim)
	}
	if p.NumRounds <= 0 {
		return fmt.Errorf("num_rounds must be positive, got %d", p.NumRounds)
	}
	if p.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", p.BatchSize)
	}
	if p.MaskFraction < 0 || p.MaskFraction > 1 {
		return fmt.Errorf("mask_fraction must be in [0, 1], got %g", p.MaskFraction)
	}
	return nil
}
