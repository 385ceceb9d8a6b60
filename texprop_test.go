package texprop

import (
	"context"
	"image"
	"testing"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/texprop/pkg/config"
	"github.com/soundprediction/texprop/pkg/types"
)

const embDim = 4

// stubPredictor returns a constant embedding per node and counts calls.
type stubPredictor struct {
	calls int
}

func (p *stubPredictor) Predict(ctx context.Context, inputs []*tensors.Tensor) ([][]float32, error) {
	p.calls++
	numNodes := inputs[0].Shape().Dimensions[0]
	embeddings := make([][]float32, numNodes)
	for i := range embeddings {
		embeddings[i] = []float32{0.1, 0.2, 0.3, 0.4}
	}
	return embeddings, nil
}

// stubSynthesizer renders a fixed-size blank crop and counts calls.
type stubSynthesizer struct {
	calls int
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, embedding []float32) (image.Image, error) {
	s.calls++
	return image.NewNRGBA(image.Rect(0, 0, 4, 4)), nil
}

func testPropConfig() *config.Propagation {
	return &config.Propagation{
		EmbeddingDim:        embDim,
		StateDim:            8,
		MessageDim:          8,
		NumRounds:           1,
		BatchSize:           2,
		TrainGraphGenerator: "train",
		ValGraphGenerator:   "val",
		MaskFraction:        0.3,
	}
}

func testHouses() map[string]*types.House {
	houses := make(map[string]*types.House)
	for _, key := range []string{"h1", "h2", "h3"} {
		house := types.NewHouse(key, 2)
		house.Doors = []types.Door{{RoomA: 0, RoomB: 1}}
		house.Room(0).Surface(types.SurfaceFloor).Observed = &types.ObservedTexture{
			Embedding: []float32{1, 0, 0, 0},
		}
		houses[key] = house
	}
	return houses
}

func newTestClient() (*Client, *stubPredictor, *stubSynthesizer) {
	predictor := &stubPredictor{}
	synth := &stubSynthesizer{}
	return NewClient(predictor, synth, testPropConfig()), predictor, synth
}

func TestPropagateClearsPredictionsByDefault(t *testing.T) {
	client, _, _ := newTestClient()
	houses := testHouses()

	stale := &types.TexturePrediction{Embedding: []float32{9, 9, 9, 9}, Source: types.SourcePropagated}
	houses["h1"].Room(1).Surface(types.SurfaceWall).Prediction = stale

	require.NoError(t, client.Propagate(context.Background(), houses, PropagateOptions{}))

	// The stale prediction is gone; the surface carries a freshly propagated
	// embedding instead.
	fresh := houses["h1"].Room(1).Surface(types.SurfaceWall).Prediction
	require.NotNil(t, fresh)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, fresh.Embedding)
	assert.Equal(t, types.SourcePropagated, fresh.Source)

	// Every surface of every house got an embedding.
	for _, house := range houses {
		for _, surface := range house.Surfaces() {
			require.NotNil(t, surface.Prediction, "surface %s of %s", surface.ID(), house.Key)
			assert.NotNil(t, surface.Prediction.Embedding)
		}
	}

	// Observed textures survive a clearing run.
	assert.NotNil(t, houses["h1"].Room(0).Surface(types.SurfaceFloor).Observed)
}

func TestPropagateKeepsExistingPredictions(t *testing.T) {
	client, _, _ := newTestClient()
	houses := testHouses()

	kept := &types.TexturePrediction{Embedding: []float32{9, 9, 9, 9}, Source: types.SourcePropagated}
	houses["h2"].Room(0).Surface(types.SurfaceCeiling).Prediction = kept

	opts := PropagateOptions{KeepExistingPredictions: true}
	require.NoError(t, client.Propagate(context.Background(), houses, opts))

	assert.Same(t, kept, houses["h2"].Room(0).Surface(types.SurfaceCeiling).Prediction)
	assert.Equal(t, []float32{9, 9, 9, 9}, kept.Embedding)

	// Surfaces without a prior prediction still got one.
	assert.NotNil(t, houses["h2"].Room(0).Surface(types.SurfaceWall).Prediction)
}

func TestPropagateRejectsConflictingGenerators(t *testing.T) {
	client, predictor, _ := newTestClient()
	houses := testHouses()
	houses["h1"].Room(1).Surface(types.SurfaceWall).Prediction = &types.TexturePrediction{
		Embedding: []float32{9, 9, 9, 9},
	}

	opts := PropagateOptions{UseTrainGraphGenerator: true, UseValGraphGenerator: true}
	err := client.Propagate(context.Background(), houses, opts)
	assert.ErrorIs(t, err, ErrConflictingGenerators)

	// The run failed before any inference or mutation.
	assert.Zero(t, predictor.calls)
	assert.NotNil(t, houses["h1"].Room(1).Surface(types.SurfaceWall).Prediction)
}

func TestFillTextures(t *testing.T) {
	client, _, synth := newTestClient()
	houses := testHouses()

	require.NoError(t, client.Propagate(context.Background(), houses, PropagateOptions{}))
	require.NoError(t, client.FillTextures(context.Background(), houses, false))

	total := 0
	for _, house := range houses {
		for _, surface := range house.Surfaces() {
			require.NotNil(t, surface.Prediction.Crop)
			assert.Equal(t, types.SourceSynthesized, surface.Prediction.Source)
			total++
		}
	}
	assert.Equal(t, total, synth.calls)

	t.Run("skip existing leaves crops alone", func(t *testing.T) {
		before := synth.calls
		require.NoError(t, client.FillTextures(context.Background(), houses, true))
		assert.Equal(t, before, synth.calls)
	})
}

func TestEndToEnd(t *testing.T) {
	// An unobserved surface ends the pipeline with both a non-nil embedding
	// and a crop.
	client, _, _ := newTestClient()
	houses := testHouses()
	unobserved := houses["h3"].Room(1).Surface(types.SurfaceCeiling)
	require.Nil(t, unobserved.Observed)
	require.Nil(t, unobserved.Prediction)

	require.NoError(t, client.Propagate(context.Background(), houses, PropagateOptions{}))
	require.NoError(t, client.FillTextures(context.Background(), houses, false))

	require.NotNil(t, unobserved.Prediction)
	assert.NotNil(t, unobserved.Prediction.Embedding)
	assert.NotNil(t, unobserved.Prediction.Crop)
}
