package propagator

import (
	"context"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	mlcontext "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"

	"github.com/soundprediction/texprop/pkg/config"
)

// Predictor holds a compiled propagation model and its weights.
type Predictor struct {
	backend backends.Backend
	mlctx   *mlcontext.Context
	exec    *mlcontext.Exec
	cfg     *config.Propagation
}

// New builds a predictor for the given propagation config. Weights are
// randomly initialized until LoadCheckpoint is called.
func New(backend backends.Backend, cfg *config.Propagation) (*Predictor, error) {
	mlctx := mlcontext.New()
	mlctx.SetParam(ParamEmbeddingDim, cfg.EmbeddingDim)
	mlctx.SetParam(ParamStateDim, cfg.StateDim)
	mlctx.SetParam(ParamMessageDim, cfg.MessageDim)
	mlctx.SetParam(ParamNumRounds, cfg.NumRounds)

	exec, err := mlcontext.NewExec(backend, mlctx, modelGraph)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile propagation model")
	}
	return &Predictor{backend: backend, mlctx: mlctx, exec: exec, cfg: cfg}, nil
}

// LoadCheckpoint loads trained weights from a checkpoint directory. Must be
// called before the first Predict, or the model runs with random weights.
func (p *Predictor) LoadCheckpoint(dir string) error {
	_, err := checkpoints.Load(p.mlctx).Dir(dir).Immediate().Done()
	if err != nil {
		return errors.Wrapf(err, "failed to load propagation checkpoint from %s", dir)
	}
	return nil
}

// Predict runs propagation over one graph batch. inputs are the three
// dataset tensors: node features, edge sources and edge targets. Returns one
// embedding per node.
func (p *Predictor) Predict(ctx context.Context, inputs []*tensors.Tensor) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inputs) != 3 {
		return nil, errors.Errorf("propagation expects 3 input tensors, got %d", len(inputs))
	}

	var outputs []*tensors.Tensor
	err := exceptions.TryCatch[error](func() {
		var execErr error
		outputs, execErr = p.exec.Exec(inputs[0], inputs[1], inputs[2])
		if execErr != nil {
			exceptions.Panicf("propagation execution failed: %v", execErr)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "propagation failed")
	}
	if len(outputs) != 1 {
		return nil, errors.Errorf("propagation returned %d outputs, expected 1", len(outputs))
	}

	predicted := outputs[0]
	dims := predicted.Shape().Dimensions
	if len(dims) != 2 || dims[1] != p.cfg.EmbeddingDim {
		return nil, errors.Errorf("propagation output has shape %v, expected [numNodes, %d]", dims, p.cfg.EmbeddingDim)
	}

	flat := tensors.MustCopyFlatData[float32](predicted)
	embeddings := make([][]float32, dims[0])
	for i := range embeddings {
		embeddings[i] = flat[i*p.cfg.EmbeddingDim : (i+1)*p.cfg.EmbeddingDim]
	}
	return embeddings, nil
}
