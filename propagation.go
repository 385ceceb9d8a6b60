package texprop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/soundprediction/texprop/pkg/dataset"
	"github.com/soundprediction/texprop/pkg/graphgen"
	"github.com/soundprediction/texprop/pkg/telemetry"
	"github.com/soundprediction/texprop/pkg/types"
)

// ErrConflictingGenerators is returned by Propagate when both generator
// override flags are set.
var ErrConflictingGenerators = graphgen.ErrConflictingGenerators

// Propagate runs graph propagation over the given houses, attaching a
// predicted texture embedding to surfaces. Houses are mutated in place.
// Unless KeepExistingPredictions is set, every prior prediction is cleared
// first and every surface gets a fresh embedding; with it set, surfaces that
// already carry a prediction keep it.
func (c *Client) Propagate(ctx context.Context, houses map[string]*types.House, opts PropagateOptions) error {
	generator, err := graphgen.Select(c.propCfg, opts.UseTrainGraphGenerator, opts.UseValGraphGenerator)
	if err != nil {
		return err
	}

	ds, err := dataset.New("propagation", houses, generator, c.propCfg.BatchSize)
	if err != nil {
		return err
	}

	if !opts.KeepExistingPredictions {
		ClearPredictions(houses)
	}

	c.logger.Info("starting propagation",
		"houses", len(houses),
		"batches", ds.NumBatches(),
		"generator", generator.Name(),
		"keep_existing", opts.KeepExistingPredictions)

	for batchIndex := 0; ; batchIndex++ {
		spec, inputs, _, err := ds.Yield()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("batch %d: %w", batchIndex, err)
		}
		graph := spec.(*graphgen.SurfaceGraph)

		start := time.Now()
		embeddings, err := c.predictor.Predict(ctx, inputs)
		if err != nil {
			return fmt.Errorf("batch %d: %w", batchIndex, err)
		}
		if len(embeddings) != graph.NumNodes() {
			return fmt.Errorf("batch %d: got %d embeddings for %d nodes", batchIndex, len(embeddings), graph.NumNodes())
		}

		if err := updateEmbeddings(houses, graph, embeddings, opts.KeepExistingPredictions); err != nil {
			return fmt.Errorf("batch %d: %w", batchIndex, err)
		}

		elapsed := time.Since(start)
		c.logger.Info("processed batch",
			"batch", batchIndex,
			"nodes", graph.NumNodes(),
			"edges", graph.NumEdges(),
			"duration", elapsed)
		c.recorder.RecordBatch(telemetry.BatchRecord{
			Generator:  generator.Name(),
			BatchIndex: batchIndex,
			NumHouses:  countHouses(graph),
			NumNodes:   graph.NumNodes(),
			NumEdges:   graph.NumEdges(),
			DurationMs: elapsed.Milliseconds(),
		})
	}

	if err := c.recorder.Flush(); err != nil {
		c.logger.Warn("failed to flush telemetry", "error", err)
	}
	return nil
}

// ClearPredictions removes every prediction from every surface of the given
// houses. Observed textures are untouched.
func ClearPredictions(houses map[string]*types.House) {
	for _, house := range houses {
		for _, surface := range house.Surfaces() {
			surface.Prediction = nil
		}
	}
}

// updateEmbeddings writes predicted embeddings back onto surfaces. With keep
// set, surfaces that already carry a prediction are skipped.
func updateEmbeddings(houses map[string]*types.House, graph *graphgen.SurfaceGraph, embeddings [][]float32, keep bool) error {
	for i, node := range graph.Nodes {
		house, ok := houses[node.HouseKey]
		if !ok {
			return fmt.Errorf("graph node references unknown house %s", node.HouseKey)
		}
		surface, err := house.Surface(node.SurfaceID)
		if err != nil {
			return err
		}
		if keep && surface.Prediction != nil {
			continue
		}
		surface.Prediction = &types.TexturePrediction{
			Embedding: embeddings[i],
			Source:    types.SourcePropagated,
		}
	}
	return nil
}

func countHouses(graph *graphgen.SurfaceGraph) int {
	seen := make(map[string]struct{})
	for _, node := range graph.Nodes {
		seen[node.HouseKey] = struct{}{}
	}
	return len(seen)
}
