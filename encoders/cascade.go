package encoders

import (
	"github.com/leafscan/fusionnet/nn"
	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

const lnEpsilon = 1e-6

// CascadeEncoder is the hierarchical branch encoder: a 4x4 patchify
// convolution, then two stages of [layer norm -> 3x3 same-padding
// convolution -> gelu] separated by strided downsampling convolutions, a
// final layer norm, global average pooling and a dense projection.
//
// Spatial progression: 224 -> 56 (patchify) -> 28 -> 14, channels
// 3 -> 16 -> 32 -> 64. The normalization between stages keeps the deeper
// stages' activations in range regardless of the transform feeding the
// branch.
type CascadeEncoder struct {
	weights *params.Cascade
}

// Embed maps one [224, 224, 3] transform representation to an embedding of
// params.EmbeddingDim values.
func (e *CascadeEncoder) Embed(x *tensors.Tensor) []float32 {
	shapes.AssertDims(x, params.InputHeight, params.InputWidth, params.InputChannels)
	w := e.weights

	out := nn.Conv2D(x, w.Patchify.Kernel, w.Patchify.Bias, 4, false)

	for ii := range w.Stages {
		stage := &w.Stages[ii]
		out = nn.LayerNorm(out, stage.Norm.Gain, stage.Norm.Bias, lnEpsilon)
		out = nn.GELU(nn.Conv2D(out, stage.Conv.Kernel, stage.Conv.Bias, 1, true))
		out = nn.Conv2D(out, w.Downsample[ii].Kernel, w.Downsample[ii].Bias, 2, false)
	}

	out = nn.LayerNorm(out, w.FinalNorm.Gain, w.FinalNorm.Bias, lnEpsilon)
	pooled := nn.GlobalAvgPool(out)
	return nn.Dense(pooled, w.Head.Weights, w.Head.Bias)
}
