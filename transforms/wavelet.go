package transforms

import (
	"math"

	"github.com/gomlx/exceptions"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// haarLowBand computes a single-level 2D Haar wavelet decomposition of the
// luma plane and keeps the absolute value of the LL (approximation) band,
// upsampled back to the input's spatial shape. The LL band is what carries
// the multi-resolution structure the encoders consume; the detail bands are
// discarded, matching the trained pipeline.
func haarLowBand(luma *tensors.Tensor) *tensors.Tensor {
	height, width := luma.Shape().Dim(0), luma.Shape().Dim(1)
	if height%2 != 0 || width%2 != 0 {
		exceptions.Panicf("transforms: Haar wavelet input %s must have even dimensions", luma.Shape())
	}
	halfH, halfW := height/2, width/2

	low := tensors.New(shapes.Make(halfH, halfW))
	src, dst := luma.Flat(), low.Flat()
	for y := 0; y < halfH; y++ {
		for x := 0; x < halfW; x++ {
			a := src[(2*y)*width+2*x]
			b := src[(2*y)*width+2*x+1]
			c := src[(2*y+1)*width+2*x]
			d := src[(2*y+1)*width+2*x+1]
			// Orthonormal Haar LL coefficient: (a+b+c+d)/2.
			dst[y*halfW+x] = float32(math.Abs(float64(a+b+c+d) / 2))
		}
	}
	return bilinearResize(low, height, width)
}
