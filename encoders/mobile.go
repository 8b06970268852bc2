package encoders

import (
	"github.com/leafscan/fusionnet/nn"
	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// bnEpsilon stabilizes the batch normalization denominators; it must match
// the value used at training time.
const bnEpsilon = 1e-5

// MobileEncoder is the lightweight branch encoder: a strided stem
// convolution followed by three depthwise-separable blocks, each halving the
// spatial size, then global average pooling and a dense projection to the
// embedding dimension.
//
// Spatial progression: 224 -> 112 (stem) -> 56 -> 28 -> 14, channels
// 3 -> 8 -> 16 -> 32 -> 64.
type MobileEncoder struct {
	weights *params.Mobile
}

// Embed maps one [224, 224, 3] transform representation to an embedding of
// params.EmbeddingDim values.
func (e *MobileEncoder) Embed(x *tensors.Tensor) []float32 {
	shapes.AssertDims(x, params.InputHeight, params.InputWidth, params.InputChannels)
	w := e.weights

	out := nn.Conv2D(x, w.Stem.Kernel, w.Stem.Bias, 2, true)
	out = nn.ReLU(batchNorm(out, &w.StemNorm))

	for ii := range w.Blocks {
		block := &w.Blocks[ii]
		out = nn.DepthwiseConv2D(out, block.Depthwise.Kernel, block.Depthwise.Bias, 2, true)
		out = nn.ReLU(batchNorm(out, &block.DepthwiseNorm))
		out = nn.Conv2D(out, block.Pointwise.Kernel, block.Pointwise.Bias, 1, true)
		out = nn.ReLU(batchNorm(out, &block.PointwiseNorm))
	}

	pooled := nn.GlobalAvgPool(out)
	return nn.Dense(pooled, w.Head.Weights, w.Head.Bias)
}

func batchNorm(x *tensors.Tensor, norm *params.BatchNorm) *tensors.Tensor {
	return nn.BatchNorm(x, norm.Mean, norm.Variance, norm.Scale, norm.Offset, bnEpsilon)
}
