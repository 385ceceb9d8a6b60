package texprop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/simplego"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/texprop"
	"github.com/soundprediction/texprop/pkg/config"
	"github.com/soundprediction/texprop/pkg/houseio"
	"github.com/soundprediction/texprop/pkg/logger"
	"github.com/soundprediction/texprop/pkg/propagator"
	"github.com/soundprediction/texprop/pkg/synthesizer"
	"github.com/soundprediction/texprop/pkg/telemetry"
	"github.com/soundprediction/texprop/pkg/types"
)

var (
	flagTrainGraphGenerator bool
	flagValGraphGenerator   bool
	flagKeepExisting        bool

	propagateCmd = &cobra.Command{
		Use:   "propagate OUTPUT_PATH INPUT_PATH SPLIT PROP_CONF CHECKPOINT_PATH",
		Short: "Propagate texture embeddings across a data split and synthesize crops",
		Long: `Propagate loads the houses of a data split, runs graph propagation to
predict texture embeddings for every surface, synthesizes crops for the
predictions and writes texture_crops/ and surface_texture_embeddings/ under
OUTPUT_PATH. INPUT_PATH holds the same two directories produced by the
upstream crop-select stage.`,
		Args: cobra.ExactArgs(5),
		RunE: runPropagate,
	}
)

func init() {
	propagateCmd.Flags().BoolVar(&flagTrainGraphGenerator, "train-graph-generator", false,
		"use the training graph generator instead of the inference one")
	propagateCmd.Flags().BoolVar(&flagValGraphGenerator, "val-graph-generator", false,
		"use the validation graph generator instead of the inference one")
	propagateCmd.Flags().BoolVar(&flagKeepExisting, "keep-existing-predictions", false,
		"keep surfaces that already carry a prediction instead of overwriting them")
	rootCmd.AddCommand(propagateCmd)
}

func runPropagate(cmd *cobra.Command, args []string) error {
	outputPath, inputPath, split, propConfPath, checkpointPath := args[0], args[1], args[2], args[3], args[4]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	levelName := viper.GetString("log.level")
	if levelName == "" {
		levelName = cfg.Log.Level
	}
	log := logger.NewLogger(logger.ParseLevel(levelName), cfg.Log.Format)

	propCfg, err := config.LoadPropagation(propConfPath)
	if err != nil {
		return err
	}

	cropsOut := filepath.Join(outputPath, "texture_crops")
	embeddingsOut := filepath.Join(outputPath, "surface_texture_embeddings")
	for _, dir := range []string{cropsOut, embeddingsOut} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	keys, err := houseio.ReadDataList(cfg.Data.ListDir, split)
	if err != nil {
		return err
	}
	log.Info("loading houses", "split", split, "count", len(keys))

	houses := make(map[string]*types.House, len(keys))
	bar := progressbar.Default(int64(len(keys)), "loading houses")
	for _, key := range keys {
		house, err := loadHouse(cfg, inputPath, split, key)
		if err != nil {
			return err
		}
		houses[key] = house
		bar.Add(1)
	}

	backend := backends.MustNew()
	log.Info("using backend", "name", backend.Name())

	predictor, err := propagator.New(backend, propCfg)
	if err != nil {
		return err
	}
	if err := predictor.LoadCheckpoint(checkpointPath); err != nil {
		return err
	}

	synth, err := synthesizer.New(backend, cfg.Synthesis, propCfg.EmbeddingDim)
	if err != nil {
		return err
	}
	if cfg.Synthesis.CheckpointPath != "" {
		if err := synth.LoadCheckpoint(cfg.Synthesis.CheckpointPath); err != nil {
			return err
		}
	}

	recorder, err := telemetry.NewRecorder(cfg.Telemetry.ParquetPath)
	if err != nil {
		return err
	}

	client := texprop.NewClient(predictor, synth, propCfg,
		texprop.WithLogger(log), texprop.WithTelemetry(recorder))

	ctx := context.Background()
	opts := texprop.PropagateOptions{
		KeepExistingPredictions: flagKeepExisting,
		UseTrainGraphGenerator:  flagTrainGraphGenerator,
		UseValGraphGenerator:    flagValGraphGenerator,
	}
	if err := client.Propagate(ctx, houses, opts); err != nil {
		return err
	}
	if err := client.FillTextures(ctx, houses, flagKeepExisting); err != nil {
		return err
	}

	bar = progressbar.Default(int64(len(houses)), "saving houses")
	for _, key := range types.SortedHouseKeys(houses) {
		house := houses[key]
		if err := houseio.SaveHouseCrops(house, cropsOut); err != nil {
			return err
		}
		if err := houseio.SaveHouseTextureEmbeddings(house, embeddingsOut); err != nil {
			return err
		}
		bar.Add(1)
	}

	log.Info("propagation run complete", "houses", len(houses), "output", outputPath)
	return nil
}

// loadHouse reads one house's scene graph, photo assignments, crops and
// embeddings. The photoroom CSV is optional.
func loadHouse(cfg *config.Config, inputPath, split, key string) (*types.House, error) {
	house, err := houseio.ParseHouse(key, cfg.Data.ArchPath(split, key))
	if err != nil {
		return nil, err
	}
	photoroomPath := cfg.Data.PhotoroomPath(split, key)
	if _, statErr := os.Stat(photoroomPath); statErr == nil {
		if err := houseio.LoadPhotoroomAssignments(house, photoroomPath); err != nil {
			return nil, err
		}
	}
	if err := houseio.LoadHouseCrops(house, filepath.Join(inputPath, "texture_crops")); err != nil {
		return nil, err
	}
	if err := houseio.LoadHouseTextureEmbeddings(house, filepath.Join(inputPath, "surface_texture_embeddings")); err != nil {
		return nil, err
	}
	return house, nil
}
