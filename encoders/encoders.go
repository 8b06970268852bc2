// Package encoders implements the two feature extractors of the fusion
// network: a depthwise-separable "mobile" encoder and a stage-wise
// hierarchical "cascade" encoder with layer normalization between stages.
//
// Each encoder maps one transform representation ([224, 224, 3]) to an
// embedding vector of params.EmbeddingDim values. Every transform kind goes
// through both encoders, giving the 8 branch embeddings the fusion
// classifier consumes. Branches never mix: an embedding sees exactly one
// transform representation.
//
// Encoders hold only read-only model parameters, so a Pair is safe for
// concurrent use and evaluation order across branches doesn't matter.
package encoders

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/tensors"
)

// ErrNonFinite reports NaN or Inf values detected in an embedding. It fails
// the whole inference call; a poisoned embedding must never reach the
// classifier.
var ErrNonFinite = errors.New("encoder produced non-finite values")

// Kind enumerates the two encoder architectures.
type Kind int

const (
	KindMobile Kind = iota
	KindCascade

	// NumKinds equals params.NumEncoders.
	NumKinds = 2
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindMobile:
		return "mobile"
	case KindCascade:
		return "cascade"
	}
	return "invalid"
}

// Kinds returns both encoder kinds in their fixed branch order.
func Kinds() [NumKinds]Kind {
	return [NumKinds]Kind{KindMobile, KindCascade}
}

// Pair bundles both encoders over one model parameter set.
type Pair struct {
	mobile  *MobileEncoder
	cascade *CascadeEncoder
}

// NewPair builds both encoders from the model parameters. The model must
// already have passed params.Validate.
func NewPair(model *params.Model) (*Pair, error) {
	if model == nil {
		return nil, errors.New("encoders.NewPair: nil model")
	}
	return &Pair{
		mobile:  &MobileEncoder{weights: &model.Mobile},
		cascade: &CascadeEncoder{weights: &model.Cascade},
	}, nil
}

// Embed runs the encoder of the given kind on one transform representation
// and returns its embedding of params.EmbeddingDim values.
//
// Non-finite values in the result surface as ErrNonFinite instead of
// propagating silently into the classifier.
func (p *Pair) Embed(kind Kind, x *tensors.Tensor) ([]float32, error) {
	var embedding []float32
	switch kind {
	case KindMobile:
		embedding = p.mobile.Embed(x)
	case KindCascade:
		embedding = p.cascade.Embed(x)
	default:
		exceptions.Panicf("encoders.Embed: invalid kind %d", kind)
	}
	if !tensors.FiniteSlice(embedding) {
		return nil, errors.Wrapf(ErrNonFinite, "%s encoder", kind)
	}
	return embedding, nil
}
