package nn

import (
	"math"

	"github.com/leafscan/fusionnet/types/tensors"
)

// ReLU applies max(0, x) in place and returns x.
func ReLU(x *tensors.Tensor) *tensors.Tensor {
	flat := x.Flat()
	for ii, v := range flat {
		if v < 0 {
			flat[ii] = 0
		}
	}
	return x
}

// GELU applies the exact Gaussian error linear unit in place and returns x:
//
//	gelu(x) = 0.5 * x * (1 + erf(x / sqrt(2)))
func GELU(x *tensors.Tensor) *tensors.Tensor {
	flat := x.Flat()
	for ii, v := range flat {
		flat[ii] = float32(0.5 * float64(v) * (1 + math.Erf(float64(v)/math.Sqrt2)))
	}
	return x
}
