package nn

import (
	"github.com/gomlx/exceptions"
	"github.com/leafscan/fusionnet/types/tensors"
	"gonum.org/v1/gonum/mat"
)

// Dense computes y = Wᵀx + b for a weights tensor of shape [in, out] and an
// input vector of length in. bias may be nil.
//
// The matrix product goes through gonum, accumulating in float64, and the
// result is truncated back to float32.
func Dense(x []float32, weights *tensors.Tensor, bias []float32) []float32 {
	if weights.Rank() != 2 {
		exceptions.Panicf("nn.Dense: weights must have rank 2, got shape %s", weights.Shape())
	}
	in, out := weights.Shape().Dim(0), weights.Shape().Dim(1)
	if len(x) != in {
		exceptions.Panicf("nn.Dense: input has %d values, weights shape %s expects %d", len(x), weights.Shape(), in)
	}
	if bias != nil && len(bias) != out {
		exceptions.Panicf("nn.Dense: bias has %d values, weights shape %s expects %d", len(bias), weights.Shape(), out)
	}

	w := mat.NewDense(in, out, toFloat64(weights.Flat()))
	xVec := mat.NewVecDense(in, toFloat64(x))
	var yVec mat.VecDense
	yVec.MulVec(w.T(), xVec)

	y := make([]float32, out)
	for ii := range y {
		v := yVec.AtVec(ii)
		if bias != nil {
			v += float64(bias[ii])
		}
		y[ii] = float32(v)
	}
	return y
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for ii, v := range values {
		out[ii] = float64(v)
	}
	return out
}
