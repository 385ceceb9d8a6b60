// Package texprop provides texture propagation for house models.
//
// A house model arrives with texture crops and embeddings only for surfaces
// that appear in photos. Texprop builds a graph over the house's surfaces,
// runs a pretrained propagation network to predict embeddings for the
// remaining surfaces, and synthesizes texture crops from the predictions.
//
// # Basic Usage
//
// Create a client from a predictor and a synthesizer:
//
//	backend := backends.New()
//
//	predictor, err := propagator.New(backend, propCfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := predictor.LoadCheckpoint("checkpoints/gnn"); err != nil {
//		log.Fatal(err)
//	}
//
//	synth, err := synthesizer.New(backend, cfg.Synthesis, propCfg.EmbeddingDim)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client := texprop.NewClient(predictor, synth, propCfg)
//
// Load houses with the houseio package, then propagate and synthesize:
//
//	err = client.Propagate(ctx, houses, texprop.PropagateOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = client.FillTextures(ctx, houses, false)
//
// Results are written back onto the houses in place; persist them with
// houseio.SaveHouseCrops and houseio.SaveHouseTextureEmbeddings.
package texprop
