package transforms

import (
	"math"
	"sync"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// dctBlockSize is the side of the square blocks the DCT runs on, the classic
// JPEG block size. The input spatial dimensions must be divisible by it.
const dctBlockSize = 8

var (
	dctBasisOnce sync.Once
	dctBasis     *mat.Dense // orthonormal DCT-II basis, [8, 8]
)

// dctBasisMatrix returns the orthonormal DCT-II basis C, so a block
// transforms as C · X · Cᵀ.
func dctBasisMatrix() *mat.Dense {
	dctBasisOnce.Do(func() {
		n := dctBlockSize
		dctBasis = mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			scale := math.Sqrt(2 / float64(n))
			if i == 0 {
				scale = math.Sqrt(1 / float64(n))
			}
			for j := 0; j < n; j++ {
				dctBasis.Set(i, j, scale*math.Cos(float64(2*j+1)*float64(i)*math.Pi/float64(2*n)))
			}
		}
	})
	return dctBasis
}

// blockDCT computes the block-wise 2D discrete cosine transform of a luma
// plane: each 8x8 block is replaced by its orthonormal DCT-II coefficients,
// kept in place. The output has the input's spatial shape.
func blockDCT(luma *tensors.Tensor) *tensors.Tensor {
	height, width := luma.Shape().Dim(0), luma.Shape().Dim(1)
	if height%dctBlockSize != 0 || width%dctBlockSize != 0 {
		exceptions.Panicf("transforms: DCT input %s is not divisible into %dx%d blocks",
			luma.Shape(), dctBlockSize, dctBlockSize)
	}
	basis := dctBasisMatrix()

	out := tensors.New(shapes.Make(height, width))
	src, dst := luma.Flat(), out.Flat()
	block := mat.NewDense(dctBlockSize, dctBlockSize, nil)
	var tmp, coeffs mat.Dense
	for by := 0; by < height; by += dctBlockSize {
		for bx := 0; bx < width; bx += dctBlockSize {
			for y := 0; y < dctBlockSize; y++ {
				for x := 0; x < dctBlockSize; x++ {
					block.Set(y, x, float64(src[(by+y)*width+bx+x]))
				}
			}
			tmp.Mul(basis, block)
			coeffs.Mul(&tmp, basis.T())
			for y := 0; y < dctBlockSize; y++ {
				for x := 0; x < dctBlockSize; x++ {
					dst[(by+y)*width+bx+x] = float32(coeffs.At(y, x))
				}
			}
		}
	}
	return out
}
