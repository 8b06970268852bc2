package transforms

import (
	"github.com/leafscan/fusionnet/types/tensors"
)

// applyFilter multiplies the luma plane element-wise by the learnable
// frequency filter. The filter comes from the model parameters and is fixed
// for the lifetime of the process; it is trained jointly with the encoders
// but never updated at inference time.
func (b *Bank) applyFilter(luma *tensors.Tensor) *tensors.Tensor {
	out := luma.Clone()
	filter := b.filter.Flat()
	dst := out.Flat()
	for ii := range dst {
		dst[ii] *= filter[ii]
	}
	return out
}
