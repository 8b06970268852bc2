// Package params holds the immutable model parameters: the learnable
// transform filter, both encoder weight sets and the fusion head.
//
// A Model is built once at process start -- either loaded from a checkpoint
// (see Load) or synthesized deterministically for tests and demos (see
// NewSynthetic) -- and shared read-only by every concurrent inference call.
// Nothing in the inference path ever mutates it.
//
// The package also owns the architecture contract: input size, channel
// progressions, embedding dimensionality and the class count. Validate
// checks every weight tensor against that contract, so a checkpoint whose
// layout drifted from the code is refused at startup instead of producing
// well-formed but wrong results.
package params

import (
	"github.com/pkg/errors"

	"github.com/leafscan/fusionnet/types/tensors"
)

// ErrLoad is the cause of every parameter loading/validation failure. The
// service must refuse to start when it sees one.
var ErrLoad = errors.New("model parameters load failure")

// Architecture contract. Training and inference must agree on every value
// here; Validate enforces the resulting tensor shapes.
const (
	// InputHeight, InputWidth and InputChannels fix the image tensor shape
	// accepted by the pipeline. Resizing happens upstream.
	InputHeight   = 224
	InputWidth    = 224
	InputChannels = 3

	// EmbeddingDim is the length of the vector each encoder produces per
	// transform representation. Both encoders emit the same dimension.
	EmbeddingDim = 64

	// NumTransforms and NumEncoders fix the branch count: every transform
	// representation goes through every encoder.
	NumTransforms = 4
	NumEncoders   = 2
	NumBranches   = NumTransforms * NumEncoders

	// FusedDim is the length of the concatenated feature vector entering
	// the fusion head.
	FusedDim = NumBranches * EmbeddingDim

	// NumClasses is the size of the disease class set.
	NumClasses = 5
)

// Mobile encoder channel progression: stem then three separable blocks, each
// halving the spatial size.
const (
	MobileStemChannels   = 8
	MobileBlock1Channels = 16
	MobileBlock2Channels = 32
	MobileBlock3Channels = 64
)

// Cascade encoder channel progression: 4x4 patchify then two stages with a
// downsampling convolution after each.
const (
	CascadePatchChannels  = 16
	CascadeStage1Channels = 32
	CascadeStage2Channels = 64
)

// Conv holds the weights of a regular 2D convolution.
// Kernel shape: [kernelH, kernelW, inChannels, outChannels].
type Conv struct {
	Kernel *tensors.Tensor
	Bias   []float32
}

// Depthwise holds the weights of a depthwise convolution.
// Kernel shape: [kernelH, kernelW, channels].
type Depthwise struct {
	Kernel *tensors.Tensor
	Bias   []float32
}

// BatchNorm holds frozen inference-time batch normalization statistics, one
// value per channel.
type BatchNorm struct {
	Mean, Variance, Scale, Offset []float32
}

// LayerNorm holds the learned per-channel gain and bias of a layer
// normalization.
type LayerNorm struct {
	Gain, Bias []float32
}

// Dense holds a fully-connected layer. Weights shape: [in, out].
type Dense struct {
	Weights *tensors.Tensor
	Bias    []float32
}

// SeparableBlock is one depthwise-separable unit of the mobile encoder:
// depthwise conv, batch norm, relu, pointwise conv, batch norm, relu.
type SeparableBlock struct {
	Depthwise     Depthwise
	DepthwiseNorm BatchNorm
	Pointwise     Conv
	PointwiseNorm BatchNorm
}

// Mobile is the full weight set of the depthwise-separable encoder.
type Mobile struct {
	Stem     Conv // 3x3 stride 2, InputChannels -> MobileStemChannels
	StemNorm BatchNorm
	Blocks   [3]SeparableBlock
	Head     Dense // MobileBlock3Channels -> EmbeddingDim
}

// CascadeStage is one stage of the hierarchical encoder: layer norm, 3x3
// same-padding convolution, gelu.
type CascadeStage struct {
	Norm LayerNorm
	Conv Conv
}

// Cascade is the full weight set of the stage-wise hierarchical encoder.
type Cascade struct {
	Patchify   Conv // 4x4 stride 4, InputChannels -> CascadePatchChannels
	Stages     [2]CascadeStage
	Downsample [2]Conv // 2x2 stride 2 after each stage
	FinalNorm  LayerNorm
	Head       Dense // CascadeStage2Channels -> EmbeddingDim
}

// Transform holds the weights of the learnable transform: a per-pixel
// multiplicative frequency filter of shape [InputHeight, InputWidth].
type Transform struct {
	FrequencyFilter *tensors.Tensor
}

// Fusion holds the final scoring layer mapping the fused feature vector to
// one raw score per class. Weights shape: [FusedDim, NumClasses].
type Fusion struct {
	Head Dense
}

// Model is the complete immutable parameter set.
type Model struct {
	Transform Transform
	Mobile    Mobile
	Cascade   Cascade
	Fusion    Fusion
}

// NumParameters returns the total number of scalar weights in the model.
func (m *Model) NumParameters() int64 {
	var total int64
	for _, ref := range m.tensorRefs() {
		if *ref.dst != nil {
			total += int64((*ref.dst).Size())
		}
	}
	for _, ref := range m.vectorRefs() {
		total += int64(len(*ref.dst))
	}
	return total
}
