package nn

import (
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// GlobalAvgPool averages each channel over all spatial positions, collapsing
// an [H, W, C] tensor into a vector of length C.
func GlobalAvgPool(x *tensors.Tensor) []float32 {
	shapes.AssertRank(x, 3)
	height, width, channels := x.Shape().Dim(0), x.Shape().Dim(1), x.Shape().Dim(2)

	sums := make([]float64, channels)
	flat := x.Flat()
	for pos := 0; pos < height*width; pos++ {
		base := pos * channels
		for c := 0; c < channels; c++ {
			sums[c] += float64(flat[base+c])
		}
	}
	out := make([]float32, channels)
	area := float64(height * width)
	for c := range out {
		out[c] = float32(sums[c] / area)
	}
	return out
}
