package graphgen

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/soundprediction/texprop/pkg/config"
	"github.com/soundprediction/texprop/pkg/types"
)

// ErrConflictingGenerators is returned when both the train and the val graph
// generator are requested for the same run.
var ErrConflictingGenerators = errors.New("train and val graph generators are mutually exclusive")

// Generator turns a batch of houses into one surface graph. Generators differ
// only in how they choose propagation targets; the graph structure is the
// same for all of them.
type Generator interface {
	// Name returns the generator's registry name.
	Name() string
	// Generate builds the batch graph for the given houses.
	Generate(houses []*types.House) (*SurfaceGraph, error)
	// IncludesTargets reports whether generated graphs carry target
	// embeddings and a target mask.
	IncludesTargets() bool
}

// New constructs a generator by registry name.
func New(name string, embeddingDim int, maskFraction float64, includeTargets bool) (Generator, error) {
	switch name {
	case "train":
		return &trainGenerator{embeddingDim: embeddingDim, maskFraction: maskFraction, includeTargets: includeTargets}, nil
	case "val":
		return &valGenerator{embeddingDim: embeddingDim, maskFraction: maskFraction, includeTargets: includeTargets}, nil
	case "inference":
		return &inferenceGenerator{embeddingDim: embeddingDim}, nil
	}
	return nil, fmt.Errorf("unknown graph generator %q", name)
}

// Select resolves the generator for a propagation run. With neither override
// flag set the inference generator is used; targets are never included
// because the run only consumes propagated embeddings. Setting both flags is
// an error, detected before any graph is built.
func Select(cfg *config.Propagation, useTrain, useVal bool) (Generator, error) {
	if useTrain && useVal {
		return nil, ErrConflictingGenerators
	}
	switch {
	case useTrain:
		return New(cfg.TrainGraphGenerator, cfg.EmbeddingDim, cfg.MaskFraction, false)
	case useVal:
		return New(cfg.ValGraphGenerator, cfg.EmbeddingDim, cfg.MaskFraction, false)
	}
	return New("inference", cfg.EmbeddingDim, cfg.MaskFraction, false)
}

// trainGenerator hides a random fraction of the observed surfaces so the
// network has to reconstruct them from their neighborhood.
type trainGenerator struct {
	embeddingDim   int
	maskFraction   float64
	includeTargets bool
}

func (g *trainGenerator) Name() string          { return "train" }
func (g *trainGenerator) IncludesTargets() bool { return g.includeTargets }

func (g *trainGenerator) Generate(houses []*types.House) (*SurfaceGraph, error) {
	graph := buildGraph(houses, g.embeddingDim, func(houseIndex, nodeIndex int, s *types.Surface) bool {
		return rand.Float64() < g.maskFraction
	})
	if !g.includeTargets {
		graph.Targets, graph.TargetMask = nil, nil
	}
	return graph, nil
}

// valGenerator hides a deterministic fraction of the observed surfaces, keyed
// on house and surface id, so validation graphs are identical run to run.
type valGenerator struct {
	embeddingDim   int
	maskFraction   float64
	includeTargets bool
}

func (g *valGenerator) Name() string          { return "val" }
func (g *valGenerator) IncludesTargets() bool { return g.includeTargets }

func (g *valGenerator) Generate(houses []*types.House) (*SurfaceGraph, error) {
	graph := buildGraph(houses, g.embeddingDim, func(houseIndex, nodeIndex int, s *types.Surface) bool {
		h := fnv.New32a()
		h.Write([]byte(houses[houseIndex].Key))
		h.Write([]byte(s.ID()))
		return float64(h.Sum32())/float64(^uint32(0)) < g.maskFraction
	})
	if !g.includeTargets {
		graph.Targets, graph.TargetMask = nil, nil
	}
	return graph, nil
}

// inferenceGenerator keeps every observation visible and produces no targets.
type inferenceGenerator struct {
	embeddingDim int
}

func (g *inferenceGenerator) Name() string          { return "inference" }
func (g *inferenceGenerator) IncludesTargets() bool { return false }

func (g *inferenceGenerator) Generate(houses []*types.House) (*SurfaceGraph, error) {
	return buildGraph(houses, g.embeddingDim, nil), nil
}
