// Package dataset adapts house batches to the gomlx train.Dataset interface.
// Each yield covers up to batchSize houses, turned into one surface graph by
// the configured generator.
package dataset

import (
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/soundprediction/texprop/pkg/graphgen"
	"github.com/soundprediction/texprop/pkg/types"
)

// HouseDataset yields surface graph batches as tensors. Houses are batched in
// lexicographic key order so runs are reproducible. It is not safe for
// concurrent use.
type HouseDataset struct {
	name      string
	houses    []*types.House
	generator graphgen.Generator
	batchSize int
	next      int
}

// New creates a dataset over the given houses. batchSize is the number of
// houses per yielded graph.
func New(name string, houses map[string]*types.House, generator graphgen.Generator, batchSize int) (*HouseDataset, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if len(houses) == 0 {
		return nil, fmt.Errorf("dataset %s has no houses", name)
	}
	ordered := make([]*types.House, 0, len(houses))
	for _, key := range types.SortedHouseKeys(houses) {
		ordered = append(ordered, houses[key])
	}
	return &HouseDataset{
		name:      name,
		houses:    ordered,
		generator: generator,
		batchSize: batchSize,
	}, nil
}

// Name implements train.Dataset.
func (d *HouseDataset) Name() string { return d.name }

// Reset implements train.Dataset, rewinding to the first batch.
func (d *HouseDataset) Reset() { d.next = 0 }

// NumBatches returns how many yields a full pass takes.
func (d *HouseDataset) NumBatches() int {
	return (len(d.houses) + d.batchSize - 1) / d.batchSize
}

// Yield implements train.Dataset. The spec is the *graphgen.SurfaceGraph the
// tensors were built from, which callers use to map predictions back onto
// surfaces. Inputs are node features (Float32[numNodes, featureDim]) and the
// edge index vectors (Int32[numEdges] each). Labels carry target embeddings
// and the target mask when the generator produces them. Returns io.EOF after
// the last batch.
func (d *HouseDataset) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	if d.next >= len(d.houses) {
		return nil, nil, nil, io.EOF
	}
	end := d.next + d.batchSize
	if end > len(d.houses) {
		end = len(d.houses)
	}
	batch := d.houses[d.next:end]
	d.next = end

	graph, err := d.generator.Generate(batch)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build graph for dataset %s: %w", d.name, err)
	}

	features := make([]float32, 0, graph.NumNodes()*graph.FeatureDim())
	for _, row := range graph.Features {
		features = append(features, row...)
	}
	inputs = []*tensors.Tensor{
		tensors.FromFlatDataAndDimensions(features, graph.NumNodes(), graph.FeatureDim()),
		tensors.FromFlatDataAndDimensions(graph.EdgeSources, graph.NumEdges()),
		tensors.FromFlatDataAndDimensions(graph.EdgeTargets, graph.NumEdges()),
	}

	if d.generator.IncludesTargets() {
		targets := make([]float32, 0, graph.NumNodes()*graph.EmbeddingDim)
		mask := make([]float32, 0, graph.NumNodes())
		for i, row := range graph.Targets {
			targets = append(targets, row...)
			if graph.TargetMask[i] {
				mask = append(mask, 1)
			} else {
				mask = append(mask, 0)
			}
		}
		labels = []*tensors.Tensor{
			tensors.FromFlatDataAndDimensions(targets, graph.NumNodes(), graph.EmbeddingDim),
			tensors.FromFlatDataAndDimensions(mask, graph.NumNodes()),
		}
	}

	return graph, inputs, labels, nil
}
