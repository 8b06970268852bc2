package params

import (
	"math/rand"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// NewSynthetic builds a fully-populated Model from a deterministic
// pseudo-random stream seeded with seed. Two calls with the same seed yield
// bit-identical models.
//
// The weights carry no knowledge of leaves or diseases -- this exists for
// tests and demo runs without a trained checkpoint. Values are kept small so
// the deep branches stay numerically tame.
func NewSynthetic(seed int64) *Model {
	rng := rand.New(rand.NewSource(seed))
	m := &Model{}
	for _, ref := range m.tensorRefs() {
		t := tensors.New(shapes.Make(ref.want...))
		flat := t.Flat()
		for ii := range flat {
			flat[ii] = float32(rng.NormFloat64()) * 0.1
		}
		// The learnable frequency filter multiplies the image plane, so
		// center it at 1 instead of 0.
		if ref.name == "transform/frequency_filter" {
			for ii := range flat {
				flat[ii] += 1
			}
		}
		*ref.dst = t
	}
	for _, ref := range m.vectorRefs() {
		v := make([]float32, ref.want)
		for ii := range v {
			switch ref.kind {
			case vecVariance:
				v[ii] = 1 + 0.1*float32(rng.Float64())
			case vecScale, vecGain:
				v[ii] = 1 + 0.05*float32(rng.NormFloat64())
			default: // biases, means, offsets
				v[ii] = 0.05 * float32(rng.NormFloat64())
			}
		}
		*ref.dst = v
	}
	return m
}
