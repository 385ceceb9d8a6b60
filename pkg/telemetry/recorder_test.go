package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderDisabled(t *testing.T) {
	recorder, err := NewRecorder("")
	require.NoError(t, err)
	assert.False(t, recorder.Enabled())
	assert.Empty(t, recorder.RunID())

	recorder.RecordBatch(BatchRecord{BatchIndex: 0})
	assert.NoError(t, recorder.Flush())
}

func TestRecorderFlush(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(dir)
	require.NoError(t, err)
	assert.True(t, recorder.Enabled())
	assert.NotEmpty(t, recorder.RunID())

	recorder.RecordBatch(BatchRecord{Generator: "inference", BatchIndex: 0, NumHouses: 8, NumNodes: 48, NumEdges: 200, DurationMs: 12})
	recorder.RecordBatch(BatchRecord{Generator: "inference", BatchIndex: 1, NumHouses: 3, NumNodes: 18, NumEdges: 72, DurationMs: 7})
	require.NoError(t, recorder.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "propagation_"))

	rows, err := parquet.ReadFile[BatchRecord](filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, recorder.RunID(), rows[0].RunID)
	assert.Equal(t, 1, rows[1].BatchIndex)
	assert.Equal(t, 48, rows[0].NumNodes)
	assert.False(t, rows[0].Timestamp.IsZero())

	t.Run("second flush with no records is a no-op", func(t *testing.T) {
		require.NoError(t, recorder.Flush())
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
