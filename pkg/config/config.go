// Package config holds application configuration (viper-backed) and the YAML
// model configuration files passed on the command line.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Data configuration: where house lists and scene files live.
	Data DataConfig `mapstructure:"data"`

	// Synthesis configuration for the texture generator.
	Synthesis SynthesisConfig `mapstructure:"synthesis"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DataConfig holds the on-disk layout of the raw dataset.
type DataConfig struct {
	// ListDir contains one "<split>.txt" file per data split, each listing
	// house keys one per line.
	ListDir string `mapstructure:"list_dir"`

	// ArchPathSpec is a format string resolving a house scene-graph JSON file.
	// It receives (split, houseKey).
	ArchPathSpec string `mapstructure:"arch_path_spec"`

	// PhotoroomPathSpec is a format string resolving a house's photo-to-room
	// assignment CSV. It receives (split, houseKey). Optional.
	PhotoroomPathSpec string `mapstructure:"photoroom_path_spec"`
}

// ArchPath resolves the scene-graph JSON path for a house.
func (d DataConfig) ArchPath(split, houseKey string) string {
	return fmt.Sprintf(d.ArchPathSpec, split, houseKey)
}

// PhotoroomPath resolves the photoroom CSV path for a house. Returns "" when
// no spec is configured.
func (d DataConfig) PhotoroomPath(split, houseKey string) string {
	if d.PhotoroomPathSpec == "" {
		return ""
	}
	return fmt.Sprintf(d.PhotoroomPathSpec, split, houseKey)
}

// SynthesisConfig holds configuration for the texture synthesis predictor.
type SynthesisConfig struct {
	// CheckpointPath of the pretrained synthesis decoder.
	CheckpointPath string `mapstructure:"checkpoint_path"`

	// CropSize is the side length in pixels of synthesized crops.
	CropSize int `mapstructure:"crop_size"`

	// HiddenDim is the width of the decoder's hidden layers.
	HiddenDim int `mapstructure:"hidden_dim"`

	// RGBMedianEmb treats the first three embedding dimensions as the median
	// color of the texture and biases the decoded crop towards it.
	RGBMedianEmb bool `mapstructure:"rgb_median_emb"`
}

// TelemetryConfig holds telemetry configuration.
type TelemetryConfig struct {
	// ParquetPath is the directory batch inference records are written to.
	// Empty disables telemetry.
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)
	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("data.list_dir", "./data/lists")
	viper.SetDefault("data.arch_path_spec", "./data/raw/%s/%s.arch.json")
	viper.SetDefault("data.photoroom_path_spec", "")

	viper.SetDefault("synthesis.crop_size", 128)
	viper.SetDefault("synthesis.hidden_dim", 256)
	viper.SetDefault("synthesis.rgb_median_emb", true)
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if dir := os.Getenv("TEXPROP_DATA_LIST_DIR"); dir != "" {
		config.Data.ListDir = dir
	}
	if spec := os.Getenv("TEXPROP_ARCH_PATH_SPEC"); spec != "" {
		config.Data.ArchPathSpec = spec
	}
	if path := os.Getenv("TEXPROP_SYNTH_CHECKPOINT"); path != "" {
		config.Synthesis.CheckpointPath = path
	}
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
