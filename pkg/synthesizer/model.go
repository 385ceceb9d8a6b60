package synthesizer

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers/fnn"
)

// Context hyperparameter keys for the decoder model. Set from the synthesis
// config by New.
const (
	ParamCropSize  = "texprop_crop_size"
	ParamHiddenDim = "texprop_hidden_dim"
)

// decoderGraph builds the crop decoder. embedding is Float32[batch,
// embeddingDim]; the output is Float32[batch, cropSize, cropSize, 3] with
// channel values in [0, 1].
func decoderGraph(ctx *context.Context, embedding *Node) *Node {
	cropSize := context.GetParamOr(ctx, ParamCropSize, 128)
	hiddenDim := context.GetParamOr(ctx, ParamHiddenDim, 256)

	batch := embedding.Shape().Dimensions[0]
	flat := fnn.New(ctx.In("decoder"), embedding, cropSize*cropSize*3).
		NumHiddenLayers(2, hiddenDim).
		Done()
	return Sigmoid(Reshape(flat, batch, cropSize, cropSize, 3))
}
