package propagator

import (
	"context"
	"math"
	"testing"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/simplego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/texprop/pkg/config"
	"github.com/soundprediction/texprop/pkg/dataset"
	"github.com/soundprediction/texprop/pkg/graphgen"
	"github.com/soundprediction/texprop/pkg/types"
)

func testConfig() *config.Propagation {
	return &config.Propagation{
		EmbeddingDim:        4,
		StateDim:            8,
		MessageDim:          8,
		NumRounds:           2,
		BatchSize:           8,
		TrainGraphGenerator: "train",
		ValGraphGenerator:   "val",
		MaskFraction:        0.3,
	}
}

func TestPredict(t *testing.T) {
	backend := backends.MustNew()
	cfg := testConfig()

	predictor, err := New(backend, cfg)
	require.NoError(t, err)

	house := types.NewHouse("h1", 2)
	house.Doors = []types.Door{{RoomA: 0, RoomB: 1}}
	house.Room(0).Surface(types.SurfaceFloor).Observed = &types.ObservedTexture{
		Embedding: []float32{0.5, -0.5, 0.25, 0},
	}

	gen, err := graphgen.New("inference", cfg.EmbeddingDim, 0, false)
	require.NoError(t, err)
	ds, err := dataset.New("test", map[string]*types.House{"h1": house}, gen, cfg.BatchSize)
	require.NoError(t, err)

	_, inputs, _, err := ds.Yield()
	require.NoError(t, err)

	// Random weights; only shape and finiteness are meaningful here.
	embeddings, err := predictor.Predict(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, embeddings, 6)
	for _, emb := range embeddings {
		require.Len(t, emb, cfg.EmbeddingDim)
		for _, v := range emb {
			assert.False(t, math.IsNaN(float64(v)))
			assert.LessOrEqual(t, math.Abs(float64(v)), 1.0, "readout is tanh bounded")
		}
	}

	t.Run("wrong input count", func(t *testing.T) {
		_, err := predictor.Predict(context.Background(), inputs[:2])
		assert.ErrorContains(t, err, "3 input tensors")
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := predictor.Predict(canceled, inputs)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadCheckpointMissingDir(t *testing.T) {
	backend := backends.MustNew()
	predictor, err := New(backend, testConfig())
	require.NoError(t, err)

	assert.Error(t, predictor.LoadCheckpoint(t.TempDir()+"/does-not-exist"))
}
