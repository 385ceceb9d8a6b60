package texprop

import (
	"context"
	"fmt"

	"github.com/soundprediction/texprop/pkg/types"
)

// FillTextures renders a crop for every surface carrying a propagated
// embedding. With skipExisting set, surfaces that already have a predicted
// crop are left alone; this pairs with PropagateOptions.
// KeepExistingPredictions so rerunning the pipeline never overwrites earlier
// results.
func (c *Client) FillTextures(ctx context.Context, houses map[string]*types.House, skipExisting bool) error {
	var synthesized int
	for _, key := range types.SortedHouseKeys(houses) {
		house := houses[key]
		for _, surface := range house.Surfaces() {
			prediction := surface.Prediction
			if prediction == nil || prediction.Embedding == nil {
				continue
			}
			if skipExisting && prediction.Crop != nil {
				continue
			}
			crop, err := c.synthesizer.Synthesize(ctx, prediction.Embedding)
			if err != nil {
				return fmt.Errorf("failed to synthesize texture for surface %s of house %s: %w", surface.ID(), house.Key, err)
			}
			prediction.Crop = crop
			prediction.Source = types.SourceSynthesized
			synthesized++
		}
	}
	c.logger.Info("filled textures", "houses", len(houses), "synthesized", synthesized)
	return nil
}
