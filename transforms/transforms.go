// Package transforms implements the transform bank: four functions turning a
// normalized [224, 224, 3] image tensor into four alternate representations
// of the same shape, one per Kind.
//
// The DCT, STFT and wavelet transforms are pure functions: no state, no
// randomness, identical input gives identical output. The learnable
// transform reads its filter from the model parameters, fixed at startup, so
// it is equally deterministic per process.
//
// All four work on the luma plane (ITU-R BT.601 weights, matching the
// RGB-to-gray conversion the model was trained with) and replicate their
// single-channel result to 3 channels so the encoders see a uniform input
// shape.
package transforms

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// Kind enumerates the four transform representations.
type Kind int

const (
	KindDCT Kind = iota
	KindSTFT
	KindWavelet
	KindLearnable

	// NumKinds is the number of transform kinds; equals params.NumTransforms.
	NumKinds = 4
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindDCT:
		return "dct"
	case KindSTFT:
		return "stft"
	case KindWavelet:
		return "wavelet"
	case KindLearnable:
		return "learnable"
	}
	return "invalid"
}

// Kinds returns all transform kinds in their fixed branch order.
func Kinds() [NumKinds]Kind {
	return [NumKinds]Kind{KindDCT, KindSTFT, KindWavelet, KindLearnable}
}

// Bank applies the four transforms. It is safe for concurrent use: the only
// state is the read-only learnable filter.
type Bank struct {
	filter *tensors.Tensor // [InputHeight, InputWidth]
}

// NewBank creates a Bank with the given learnable frequency filter, shape
// [params.InputHeight, params.InputWidth].
func NewBank(filter *tensors.Tensor) (*Bank, error) {
	if filter == nil {
		return nil, errors.New("transforms.NewBank: nil frequency filter")
	}
	if err := filter.Shape().CheckDims(params.InputHeight, params.InputWidth); err != nil {
		return nil, errors.WithMessage(err, "transforms.NewBank: frequency filter")
	}
	return &Bank{filter: filter}, nil
}

// Apply computes the representation of the given kind. The input must
// already have the contract shape [224, 224, 3]; the caller (the inference
// engine) validates external inputs before any transform work starts.
func (b *Bank) Apply(kind Kind, img *tensors.Tensor) *tensors.Tensor {
	shapes.AssertDims(img, params.InputHeight, params.InputWidth, params.InputChannels)
	luma := grayscale(img)
	switch kind {
	case KindDCT:
		return replicate(blockDCT(luma))
	case KindSTFT:
		return replicate(stftMagnitude(luma))
	case KindWavelet:
		return replicate(haarLowBand(luma))
	case KindLearnable:
		return replicate(b.applyFilter(luma))
	}
	exceptions.Panicf("transforms.Apply: invalid kind %d", kind)
	return nil
}

// ApplyAll computes all four representations in branch order.
func (b *Bank) ApplyAll(img *tensors.Tensor) [NumKinds]*tensors.Tensor {
	var outputs [NumKinds]*tensors.Tensor
	for ii, kind := range Kinds() {
		outputs[ii] = b.Apply(kind, img)
	}
	return outputs
}

// grayscale collapses [H, W, 3] to the [H, W] luma plane with BT.601
// weights.
func grayscale(img *tensors.Tensor) *tensors.Tensor {
	height, width := img.Shape().Dim(0), img.Shape().Dim(1)
	out := tensors.New(shapes.Make(height, width))
	src, dst := img.Flat(), out.Flat()
	for pos := 0; pos < height*width; pos++ {
		base := pos * 3
		dst[pos] = 0.299*src[base] + 0.587*src[base+1] + 0.114*src[base+2]
	}
	return out
}

// replicate stacks a [H, W] plane into [H, W, 3].
func replicate(plane *tensors.Tensor) *tensors.Tensor {
	height, width := plane.Shape().Dim(0), plane.Shape().Dim(1)
	out := tensors.New(shapes.Make(height, width, 3))
	src, dst := plane.Flat(), out.Flat()
	for pos, v := range src {
		base := pos * 3
		dst[base], dst[base+1], dst[base+2] = v, v, v
	}
	return out
}

// bilinearResize resizes a [H, W] plane to [outH, outW] with bilinear
// interpolation, align-corners style so the edges map exactly.
func bilinearResize(plane *tensors.Tensor, outH, outW int) *tensors.Tensor {
	height, width := plane.Shape().Dim(0), plane.Shape().Dim(1)
	if height == outH && width == outW {
		return plane
	}
	out := tensors.New(shapes.Make(outH, outW))
	src, dst := plane.Flat(), out.Flat()
	scaleY := float64(height-1) / float64(max(outH-1, 1))
	scaleX := float64(width-1) / float64(max(outW-1, 1))
	for oy := 0; oy < outH; oy++ {
		fy := float64(oy) * scaleY
		y0 := int(fy)
		y1 := min(y0+1, height-1)
		wy := float32(fy - float64(y0))
		for ox := 0; ox < outW; ox++ {
			fx := float64(ox) * scaleX
			x0 := int(fx)
			x1 := min(x0+1, width-1)
			wx := float32(fx - float64(x0))
			top := src[y0*width+x0]*(1-wx) + src[y0*width+x1]*wx
			bottom := src[y1*width+x0]*(1-wx) + src[y1*width+x1]*wx
			dst[oy*outW+ox] = top*(1-wy) + bottom*wy
		}
	}
	return out
}
