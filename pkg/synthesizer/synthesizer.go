// Package synthesizer renders texture crops from propagated embeddings: a
// decoder network maps an embedding to an RGB tile.
package synthesizer

import (
	"context"
	"image"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	mlcontext "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"

	"github.com/soundprediction/texprop/pkg/config"
)

// Synthesizer holds a compiled decoder model and its weights.
type Synthesizer struct {
	backend      backends.Backend
	mlctx        *mlcontext.Context
	exec         *mlcontext.Exec
	cfg          config.SynthesisConfig
	embeddingDim int
}

// New builds a synthesizer decoding embeddings of the given dimension into
// cfg.CropSize square crops. Weights are randomly initialized until
// LoadCheckpoint is called.
func New(backend backends.Backend, cfg config.SynthesisConfig, embeddingDim int) (*Synthesizer, error) {
	if cfg.CropSize <= 0 {
		return nil, errors.Errorf("crop size must be positive, got %d", cfg.CropSize)
	}
	mlctx := mlcontext.New()
	mlctx.SetParam(ParamCropSize, cfg.CropSize)
	mlctx.SetParam(ParamHiddenDim, cfg.HiddenDim)

	exec, err := mlcontext.NewExec(backend, mlctx, decoderGraph)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile synthesis decoder")
	}
	return &Synthesizer{
		backend:      backend,
		mlctx:        mlctx,
		exec:         exec,
		cfg:          cfg,
		embeddingDim: embeddingDim,
	}, nil
}

// LoadCheckpoint loads trained decoder weights from a checkpoint directory.
func (s *Synthesizer) LoadCheckpoint(dir string) error {
	_, err := checkpoints.Load(s.mlctx).Dir(dir).Immediate().Done()
	if err != nil {
		return errors.Wrapf(err, "failed to load synthesis checkpoint from %s", dir)
	}
	return nil
}

// Synthesize decodes one embedding into a texture crop. When the median
// color conditioning is enabled, the first three embedding components are
// treated as the crop's median RGB and added to the decoded residual.
func (s *Synthesizer) Synthesize(ctx context.Context, embedding []float32) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(embedding) != s.embeddingDim {
		return nil, errors.Errorf("embedding has %d components, expected %d", len(embedding), s.embeddingDim)
	}
	if s.cfg.RGBMedianEmb && s.embeddingDim < 3 {
		return nil, errors.Errorf("median color conditioning needs at least 3 embedding components, have %d", s.embeddingDim)
	}

	input := tensors.FromFlatDataAndDimensions(embedding, 1, s.embeddingDim)

	var outputs []*tensors.Tensor
	err := exceptions.TryCatch[error](func() {
		var execErr error
		outputs, execErr = s.exec.Exec(input)
		if execErr != nil {
			exceptions.Panicf("decoder execution failed: %v", execErr)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "synthesis failed")
	}
	if len(outputs) != 1 {
		return nil, errors.Errorf("decoder returned %d outputs, expected 1", len(outputs))
	}

	size := s.cfg.CropSize
	dims := outputs[0].Shape().Dimensions
	if len(dims) != 4 || dims[1] != size || dims[2] != size || dims[3] != 3 {
		return nil, errors.Errorf("decoder output has shape %v, expected [1, %d, %d, 3]", dims, size, size)
	}

	pixels := tensors.MustCopyFlatData[float32](outputs[0])
	var median [3]float32
	if s.cfg.RGBMedianEmb {
		copy(median[:], embedding[:3])
	}
	return toImage(pixels, size, median), nil
}

// toImage converts flat [size, size, 3] pixel values in [0, 1] plus a median
// color offset into an NRGBA image.
func toImage(pixels []float32, size int, median [3]float32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			base := (y*size + x) * 3
			offset := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				img.Pix[offset+c] = clampByte(pixels[base+c] + median[c])
			}
			img.Pix[offset+3] = 0xff
		}
	}
	return img
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
