// Package telemetry records per-batch propagation metrics to Parquet files,
// one file per run.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// BatchRecord is one propagation batch's metrics as stored in Parquet.
type BatchRecord struct {
	RunID      string    `parquet:"run_id"`
	Generator  string    `parquet:"generator"`
	BatchIndex int       `parquet:"batch_index"`
	NumHouses  int       `parquet:"num_houses"`
	NumNodes   int       `parquet:"num_nodes"`
	NumEdges   int       `parquet:"num_edges"`
	DurationMs int64     `parquet:"duration_ms"`
	Timestamp  time.Time `parquet:"timestamp"`
}

// Recorder buffers batch records and writes them out as one Parquet file on
// Flush. A Recorder with an empty output directory is disabled: all calls
// are no-ops. Safe for concurrent use.
type Recorder struct {
	outputDir string
	runID     string

	mu      sync.Mutex
	records []BatchRecord
}

// NewRecorder creates a recorder writing to outputDir. Pass an empty dir to
// disable telemetry.
func NewRecorder(outputDir string) (*Recorder, error) {
	if outputDir == "" {
		return &Recorder{}, nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &Recorder{
		outputDir: outputDir,
		runID:     uuid.New().String(),
	}, nil
}

// Enabled reports whether the recorder writes anything.
func (r *Recorder) Enabled() bool { return r.outputDir != "" }

// RunID returns the run identifier stamped on every record, or "" when
// disabled.
func (r *Recorder) RunID() string { return r.runID }

// RecordBatch buffers one batch record, stamping run id and timestamp.
func (r *Recorder) RecordBatch(record BatchRecord) {
	if !r.Enabled() {
		return
	}
	record.RunID = r.runID
	record.Timestamp = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

// Flush writes all buffered records to a Parquet file named after the run
// and clears the buffer. Flushing an empty or disabled recorder is a no-op.
func (r *Recorder) Flush() error {
	if !r.Enabled() {
		return nil
	}

	r.mu.Lock()
	records := r.records
	r.records = nil
	r.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	path := filepath.Join(r.outputDir, fmt.Sprintf("propagation_%s_%s.parquet",
		time.Now().UTC().Format("20060102_150405"), r.runID[:8]))
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("failed to write telemetry file %s: %w", path, err)
	}
	return nil
}
