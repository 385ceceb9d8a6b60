package houseio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/soundprediction/texprop/pkg/types"
)

// LoadHouseCrops loads texture crop PNGs for a house from
// "<cropsDir>/<houseKey>/". File names follow "<surfaceID>_<source>.png",
// e.g. "2_floor_observed.png". Observed crops attach to Surface.Observed,
// predicted sources attach to Surface.Prediction. Unknown files are skipped.
func LoadHouseCrops(house *types.House, cropsDir string) error {
	houseDir := filepath.Join(cropsDir, house.Key)
	entries, err := os.ReadDir(houseDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list crops for house %s: %w", house.Key, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		surfaceID, source, ok := parseCropName(entry.Name())
		if !ok {
			continue
		}
		surface, err := house.Surface(surfaceID)
		if err != nil || surface == nil {
			continue
		}
		img, err := imaging.Open(filepath.Join(houseDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to load crop %s for house %s: %w", entry.Name(), house.Key, err)
		}
		switch source {
		case types.SourceObserved:
			if surface.Observed == nil {
				surface.Observed = &types.ObservedTexture{}
			}
			surface.Observed.Crop = img
		default:
			if surface.Prediction == nil {
				surface.Prediction = &types.TexturePrediction{Source: source}
			}
			surface.Prediction.Crop = img
		}
	}
	return nil
}

// SaveHouseCrops writes all crops of a house under "<cropsDir>/<houseKey>/",
// creating the directory as needed.
func SaveHouseCrops(house *types.House, cropsDir string) error {
	houseDir := filepath.Join(cropsDir, house.Key)
	if err := os.MkdirAll(houseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create crops dir for house %s: %w", house.Key, err)
	}

	for _, surface := range house.Surfaces() {
		if surface.Observed != nil && surface.Observed.Crop != nil {
			path := filepath.Join(houseDir, cropFileName(surface.ID(), types.SourceObserved))
			if err := imaging.Save(surface.Observed.Crop, path); err != nil {
				return fmt.Errorf("failed to save crop for surface %s of house %s: %w", surface.ID(), house.Key, err)
			}
		}
		if surface.Prediction != nil && surface.Prediction.Crop != nil {
			path := filepath.Join(houseDir, cropFileName(surface.ID(), surface.Prediction.Source))
			if err := imaging.Save(surface.Prediction.Crop, path); err != nil {
				return fmt.Errorf("failed to save crop for surface %s of house %s: %w", surface.ID(), house.Key, err)
			}
		}
	}
	return nil
}

func cropFileName(id string, source types.TextureSource) string {
	return fmt.Sprintf("%s_%s.png", id, source)
}

// parseCropName splits "<roomIndex>_<kind>_<source>.png" into surface id
// and texture source.
func parseCropName(name string) (string, types.TextureSource, bool) {
	base := strings.TrimSuffix(name, ".png")
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return "", "", false
	}
	id := base[:idx]
	if _, _, err := types.ParseSurfaceID(id); err != nil {
		return "", "", false
	}
	source := types.TextureSource(base[idx+1:])
	if !source.Valid() {
		return "", "", false
	}
	return id, source, true
}
