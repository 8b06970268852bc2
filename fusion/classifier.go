package fusion

import (
	"math"

	"github.com/pkg/errors"

	"github.com/leafscan/fusionnet/nn"
	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/shapes"
)

// Distribution is the class probability distribution: non-negative values in
// class order summing to 1 (within floating tolerance).
type Distribution [NumClasses]float64

// ArgMax returns the predicted class: the highest-probability class, with
// exact ties resolving to the lower class index.
func (d Distribution) ArgMax() Class {
	best := 0
	for ii := 1; ii < NumClasses; ii++ {
		if d[ii] > d[best] {
			best = ii
		}
	}
	return Class(best)
}

// Confidence returns the maximum probability.
func (d Distribution) Confidence() float64 {
	return d[d.ArgMax()]
}

// ByName returns the distribution as an ordered class-name -> probability
// listing for external responses. Order follows the fixed class order.
func (d Distribution) ByName() []ClassProbability {
	out := make([]ClassProbability, NumClasses)
	for ii, class := range Classes() {
		out[ii] = ClassProbability{Class: class, Name: class.Name(), Probability: d[ii]}
	}
	return out
}

// ClassProbability is one entry of a Distribution listing.
type ClassProbability struct {
	Class       Class   `json:"class_id"`
	Name        string  `json:"class_name"`
	Probability float64 `json:"probability"`
}

// Classifier scores the fused feature vector. The concatenation order of the
// branch embeddings is transform-major, encoder-minor:
//
//	dct/mobile, dct/cascade, stft/mobile, stft/cascade,
//	wavelet/mobile, wavelet/cascade, learnable/mobile, learnable/cascade
//
// That order is a contract with the trained head weights -- it is supplied
// by the parameter layout, never re-derived at inference time. A head whose
// input dimension disagrees with branches x embedding size is rejected at
// construction; embeddings of the wrong length are rejected per call.
type Classifier struct {
	head *params.Dense
}

// NewClassifier validates the fusion head against the architecture contract
// and returns the classifier.
func NewClassifier(fusionParams *params.Fusion) (*Classifier, error) {
	if fusionParams == nil || fusionParams.Head.Weights == nil {
		return nil, errors.Wrap(params.ErrLoad, "fusion.NewClassifier: missing head weights")
	}
	if err := fusionParams.Head.Weights.Shape().CheckDims(params.FusedDim, NumClasses); err != nil {
		return nil, errors.WithMessage(err, "fusion.NewClassifier: head weights")
	}
	if len(fusionParams.Head.Bias) != NumClasses {
		return nil, errors.Wrapf(params.ErrLoad, "fusion.NewClassifier: head bias has %d values, wanted %d",
			len(fusionParams.Head.Bias), NumClasses)
	}
	return &Classifier{head: &fusionParams.Head}, nil
}

// Classify concatenates the branch embeddings in their fixed order, runs the
// scoring head and softmax-normalizes the raw scores into a Distribution.
//
// It returns an error wrapping shapes.ErrMismatch when the embeddings don't
// assemble into a fused vector of the contracted dimension.
func (c *Classifier) Classify(embeddings [][]float32) (Distribution, error) {
	var dist Distribution
	if len(embeddings) != params.NumBranches {
		return dist, errors.Wrapf(shapes.ErrMismatch, "fusion.Classify: got %d embeddings, the model fuses %d branches",
			len(embeddings), params.NumBranches)
	}
	fused := make([]float32, 0, params.FusedDim)
	for branch, embedding := range embeddings {
		if len(embedding) != params.EmbeddingDim {
			return dist, errors.Wrapf(shapes.ErrMismatch, "fusion.Classify: branch %d embedding has %d values, wanted %d",
				branch, len(embedding), params.EmbeddingDim)
		}
		fused = append(fused, embedding...)
	}

	logits := nn.Dense(fused, c.head.Weights, c.head.Bias)
	return softmax(logits), nil
}

// softmax normalizes raw scores into probabilities, max-subtracted for
// numerical stability. Accumulation is in float64 with fixed ordering, so
// the result is bit-reproducible.
func softmax(logits []float32) Distribution {
	var dist Distribution
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > maxLogit {
			maxLogit = float64(l)
		}
	}
	var sum float64
	for ii, l := range logits {
		e := math.Exp(float64(l) - maxLogit)
		dist[ii] = e
		sum += e
	}
	for ii := range dist {
		dist[ii] /= sum
	}
	return dist
}
