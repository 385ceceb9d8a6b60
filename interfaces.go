package texprop

import (
	"context"
	"image"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/soundprediction/texprop/pkg/propagator"
	"github.com/soundprediction/texprop/pkg/synthesizer"
)

// This file defines the focused interfaces the client is assembled from.
// Consumers and tests should depend on the smallest interface that meets
// their needs.

// EmbeddingPredictor runs graph propagation over one batch graph. The inputs
// are the tensors yielded by the house dataset: node features, edge sources
// and edge targets. It returns one embedding per graph node.
type EmbeddingPredictor interface {
	Predict(ctx context.Context, inputs []*tensors.Tensor) ([][]float32, error)
}

// TextureSynthesizer renders a texture crop from a propagated embedding.
type TextureSynthesizer interface {
	Synthesize(ctx context.Context, embedding []float32) (image.Image, error)
}

// Compile-time interface checks.
var (
	_ EmbeddingPredictor = (*propagator.Predictor)(nil)
	_ TextureSynthesizer = (*synthesizer.Synthesizer)(nil)
)
