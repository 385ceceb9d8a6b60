package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPropagation(t *testing.T) {
	t.Run("Defaults applied for omitted fields", func(t *testing.T) {
		conf, err := LoadPropagation(writeConf(t, "embedding_dim: 8\n"))
		require.NoError(t, err)
		assert.Equal(t, 8, conf.EmbeddingDim)
		assert.Equal(t, 128, conf.StateDim)
		assert.Equal(t, 2, conf.NumRounds)
		assert.Equal(t, 8, conf.BatchSize)
		assert.Equal(t, "train", conf.TrainGraphGenerator)
		assert.Equal(t, "val", conf.ValGraphGenerator)
	})

	t.Run("Full config", func(t *testing.T) {
		conf, err := LoadPropagation(writeConf(t, `
embedding_dim: 24
state_dim: 64
message_dim: 32
num_rounds: 3
batch_size: 4
train_graph_generator: train
val_graph_generator: val
mask_fraction: 0.5
`))
		require.NoError(t, err)
		assert.Equal(t, 24, conf.EmbeddingDim)
		assert.Equal(t, 64, conf.StateDim)
		assert.Equal(t, 32, conf.MessageDim)
		assert.Equal(t, 3, conf.NumRounds)
		assert.Equal(t, 4, conf.BatchSize)
		assert.Equal(t, 0.5, conf.MaskFraction)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadPropagation(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("Malformed yaml", func(t *testing.T) {
		_, err := LoadPropagation(writeConf(t, "embedding_dim: [not a number\n"))
		assert.Error(t, err)
	})

	t.Run("Invalid values rejected", func(t *testing.T) {
		for _, content := range []string{
			"embedding_dim: 0\n",
			"num_rounds: -1\n",
			"batch_size: 0\n",
			"mask_fraction: 1.5\n",
		} {
			_, err := LoadPropagation(writeConf(t, content))
			assert.Error(t, err, "config %q should be rejected", content)
		}
	})
}
