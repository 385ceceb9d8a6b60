package texprop

import (
	"log/slog"

	"github.com/soundprediction/texprop/pkg/config"
	"github.com/soundprediction/texprop/pkg/logger"
	"github.com/soundprediction/texprop/pkg/telemetry"
)

// Client coordinates propagation and synthesis over loaded houses.
type Client struct {
	predictor   EmbeddingPredictor
	synthesizer TextureSynthesizer
	propCfg     *config.Propagation
	logger      *slog.Logger
	recorder    *telemetry.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger. Defaults to an info-level logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// WithTelemetry sets the batch telemetry recorder. Defaults to a disabled
// recorder.
func WithTelemetry(recorder *telemetry.Recorder) Option {
	return func(c *Client) { c.recorder = recorder }
}

// NewClient creates a client from a predictor, a synthesizer and the
// propagation config.
func NewClient(predictor EmbeddingPredictor, synth TextureSynthesizer, propCfg *config.Propagation, opts ...Option) *Client {
	c := &Client{
		predictor:   predictor,
		synthesizer: synth,
		propCfg:     propCfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.NewDefaultLogger(slog.LevelInfo)
	}
	if c.recorder == nil {
		c.recorder, _ = telemetry.NewRecorder("")
	}
	return c
}

// PropagateOptions control one propagation run.
type PropagateOptions struct {
	// KeepExistingPredictions leaves surfaces that already carry a
	// prediction untouched. When false, all predictions are cleared before
	// propagation and every surface receives a fresh embedding.
	KeepExistingPredictions bool

	// UseTrainGraphGenerator and UseValGraphGenerator override the graph
	// construction strategy. At most one may be set; with neither, the
	// inference generator is used.
	UseTrainGraphGenerator bool
	UseValGraphGenerator   bool
}
