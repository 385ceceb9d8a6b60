package houseio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soundprediction/texprop/pkg/types"
)

// embeddingFile is the on-disk surface embedding JSON schema.
type embeddingFile struct {
	HouseKey string                      `json:"house_key"`
	Surfaces map[string]surfaceEmbedding `json:"surfaces"`
}

type surfaceEmbedding struct {
	Observed  []float32           `json:"observed,omitempty"`
	Predicted []float32           `json:"predicted,omitempty"`
	Source    types.TextureSource `json:"source,omitempty"`
}

// LoadHouseTextureEmbeddings reads surface texture embeddings for a house
// from "<embDir>/<houseKey>.json". Missing files are not an error: a house
// may enter the pipeline with no embeddings at all.
func LoadHouseTextureEmbeddings(house *types.House, embDir string) error {
	path := filepath.Join(embDir, house.Key+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read embeddings for house %s: %w", house.Key, err)
	}

	var file embeddingFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("malformed embedding file %s: %w", path, err)
	}
	if file.HouseKey != "" && file.HouseKey != house.Key {
		return fmt.Errorf("embedding file %s is for house %s, not %s", path, file.HouseKey, house.Key)
	}

	for id, entry := range file.Surfaces {
		surface, err := house.Surface(id)
		if err != nil || surface == nil {
			return fmt.Errorf("embedding file %s references unknown surface %s", path, id)
		}
		if entry.Observed != nil {
			if surface.Observed == nil {
				surface.Observed = &types.ObservedTexture{}
			}
			surface.Observed.Embedding = entry.Observed
		}
		if entry.Predicted != nil {
			source := entry.Source
			if source == "" {
				source = types.SourcePropagated
			}
			if surface.Prediction == nil {
				surface.Prediction = &types.TexturePrediction{Source: source}
			}
			surface.Prediction.Embedding = entry.Predicted
		}
	}
	return nil
}

// SaveHouseTextureEmbeddings writes a house's surface embeddings to
// "<embDir>/<houseKey>.json" via a temp file and rename, so a crash never
// leaves a truncated file behind.
func SaveHouseTextureEmbeddings(house *types.House, embDir string) error {
	if err := os.MkdirAll(embDir, 0o755); err != nil {
		return fmt.Errorf("failed to create embeddings dir: %w", err)
	}

	file := embeddingFile{
		HouseKey: house.Key,
		Surfaces: make(map[string]surfaceEmbedding),
	}
	for _, surface := range house.Surfaces() {
		var entry surfaceEmbedding
		if surface.Observed != nil && surface.Observed.Embedding != nil {
			entry.Observed = surface.Observed.Embedding
		}
		if surface.Prediction != nil && surface.Prediction.Embedding != nil {
			entry.Predicted = surface.Prediction.Embedding
			entry.Source = surface.Prediction.Source
		}
		if entry.Observed != nil || entry.Predicted != nil {
			file.Surfaces[surface.ID()] = entry
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal embeddings for house %s: %w", house.Key, err)
	}

	path := filepath.Join(embDir, house.Key+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write embeddings for house %s: %w", house.Key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize embeddings for house %s: %w", house.Key, err)
	}
	return nil
}
