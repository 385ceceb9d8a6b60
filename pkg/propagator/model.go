// Package propagator runs graph propagation over surface graphs: a message
// passing network that predicts texture embeddings for every node from its
// observed neighborhood.
package propagator

import (
	"fmt"

	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/compute/dtypes"
)

// Context hyperparameter keys for the propagation model. Set from the
// propagation config by New.
const (
	ParamEmbeddingDim = "texprop_embedding_dim"
	ParamStateDim     = "texprop_state_dim"
	ParamMessageDim   = "texprop_message_dim"
	ParamNumRounds    = "texprop_num_rounds"
)

// modelGraph builds the propagation network. features is Float32[numNodes,
// featureDim], edgeSources and edgeTargets are Int32[numEdges]. Returns
// predicted embeddings, Float32[numNodes, embeddingDim].
func modelGraph(ctx *context.Context, features, edgeSources, edgeTargets *Node) *Node {
	embeddingDim := context.GetParamOr(ctx, ParamEmbeddingDim, 16)
	stateDim := context.GetParamOr(ctx, ParamStateDim, 128)
	messageDim := context.GetParamOr(ctx, ParamMessageDim, 128)
	numRounds := context.GetParamOr(ctx, ParamNumRounds, 2)

	state := Tanh(layers.DenseWithBias(ctx.In("encoder"), features, stateDim))

	for round := 0; round < numRounds; round++ {
		roundCtx := ctx.In(fmt.Sprintf("round_%d", round))
		messages := Tanh(layers.DenseWithBias(roundCtx.In("message"), state, messageDim))
		pooled := poolMessages(messages, edgeSources, edgeTargets)
		combined := Concatenate([]*Node{state, pooled}, -1)
		update := Tanh(layers.DenseWithBias(roundCtx.In("update"), combined, stateDim))
		state = Add(state, update)
	}

	return Tanh(layers.DenseWithBias(ctx.In("readout"), state, embeddingDim))
}

// poolMessages mean-pools edge messages onto their target nodes. messages is
// Float32[numNodes, messageDim]; a message flows along every edge from its
// source node. Every node has a self loop, so counts are never zero, but the
// division still guards against it.
func poolMessages(messages, edgeSources, edgeTargets *Node) *Node {
	g := messages.Graph()
	numNodes := messages.Shape().Dimensions[0]
	messageDim := messages.Shape().Dimensions[1]
	numEdges := edgeSources.Shape().Dimensions[0]

	sources := InsertAxes(edgeSources, -1)
	targets := InsertAxes(edgeTargets, -1)

	values := Gather(messages, sources)
	summed := Scatter(targets, values, shapes.Make(dtypes.Float32, numNodes, messageDim), false, false)

	ones := Ones(g, shapes.Make(dtypes.Float32, numEdges, 1))
	counts := Scatter(targets, ones, shapes.Make(dtypes.Float32, numNodes, 1), false, false)
	counts = MaxScalar(counts, 1)

	return Div(summed, counts)
}
