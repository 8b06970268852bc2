// Package inference implements the orchestrator that sequences the
// authenticity gate, the transform bank, the encoder pair and the fusion
// classifier into one stateless per-request inference function.
//
// An Engine is built once at startup over an immutable, validated parameter
// set and is safe for any number of concurrent Classify calls; calls share
// nothing but the read-only parameters.
package inference

import (
	"context"
	"runtime"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/leafscan/fusionnet/encoders"
	"github.com/leafscan/fusionnet/fusion"
	"github.com/leafscan/fusionnet/gate"
	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/transforms"
	"github.com/leafscan/fusionnet/types/tensors"
)

// Engine runs the full pipeline. Create it with NewEngine.
type Engine struct {
	model      *params.Model
	bank       *transforms.Bank
	pair       *encoders.Pair
	classifier *fusion.Classifier

	// maxParallelism bounds the workers evaluating transform and branch
	// tasks within one call. Across calls there is no shared limit; the
	// serving layer bounds overall concurrency.
	maxParallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxParallelism bounds the per-call worker pool. Values < 1 reset to
// the default (runtime.NumCPU).
func WithMaxParallelism(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		e.maxParallelism = n
	}
}

// NewEngine validates the model parameters and assembles the pipeline. A
// model that fails validation yields an error wrapping ErrParameterLoad and
// the process must not serve.
func NewEngine(model *params.Model, options ...Option) (*Engine, error) {
	if model == nil {
		return nil, errors.Wrap(ErrParameterLoad, "inference.NewEngine: nil model")
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	bank, err := transforms.NewBank(model.Transform.FrequencyFilter)
	if err != nil {
		return nil, err
	}
	pair, err := encoders.NewPair(model)
	if err != nil {
		return nil, err
	}
	classifier, err := fusion.NewClassifier(&model.Fusion)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		model:          model,
		bank:           bank,
		pair:           pair,
		classifier:     classifier,
		maxParallelism: runtime.NumCPU(),
	}
	for _, option := range options {
		option(e)
	}
	klog.V(1).Infof("inference engine ready: %d parameters, per-call parallelism %d",
		model.NumParameters(), e.maxParallelism)
	return e, nil
}

// ModelInfo summarizes the loaded model.
func (e *Engine) ModelInfo() ModelInfo {
	kinds := transforms.Kinds()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, kind.String())
	}
	return ModelInfo{
		InputHeight:   params.InputHeight,
		InputWidth:    params.InputWidth,
		InputChannels: params.InputChannels,
		NumClasses:    fusion.NumClasses,
		ClassNames:    fusion.ClassNames(),
		Transforms:    names,
		NumParameters: e.model.NumParameters(),
	}
}

// Classify runs one inference call on a normalized [224, 224, 3] image
// tensor with values in [0, 1].
//
// The request walks the state machine received -> gating and then either
// terminates as rejected (gate score below threshold; no class information
// in the Result) or continues transforming -> encoding -> fusing ->
// completed. Stage failures return an error from the package taxonomy and
// never a partial Result.
//
// The context cancels in-flight branch work between tasks; a canceled call
// returns the context error.
func (e *Engine) Classify(ctx context.Context, img *tensors.Tensor) (*Result, error) {
	id := uuid.NewString()
	state := e.transition(id, StateReceived, StateGating)

	if img == nil {
		return nil, errors.Wrapf(ErrInvalidInputShape, "request %s: nil image tensor", id)
	}
	if err := img.Shape().CheckDims(params.InputHeight, params.InputWidth, params.InputChannels); err != nil {
		e.transition(id, state, StateFailed)
		return nil, errors.WithMessagef(err, "request %s: image tensor", id)
	}

	// The gate has no dependency on the transform/encode work; its verdict
	// is applied before anything else is surfaced.
	verdict := gate.Score(img)
	if !verdict.Accepted {
		e.transition(id, state, StateRejected)
		klog.V(1).Infof("request %s: rejected, authenticity score %.3f (degenerate=%t)",
			id, verdict.Score, verdict.Degenerate)
		return &Result{
			ID:            id,
			State:         StateRejected,
			Authenticity:  verdict.Score,
			Rejected:      true,
			ImageHeight:   img.Shape().Dim(0),
			ImageWidth:    img.Shape().Dim(1),
			ImageChannels: img.Shape().Dim(2),
		}, nil
	}

	dist, err := e.classify(ctx, id, &state, img)
	if err != nil {
		e.transition(id, state, StateFailed)
		switch {
		case errors.Is(err, ErrInvalidInputShape),
			errors.Is(err, ErrEncoderNumerical),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return nil, errors.WithMessagef(err, "request %s", id)
		default:
			return nil, errors.Wrapf(ErrInference, "request %s: %v", id, err)
		}
	}

	state = e.transition(id, state, StateCompleted)
	class := dist.ArgMax()
	klog.V(1).Infof("request %s: completed, class=%s confidence=%.3f authenticity=%.3f",
		id, class, dist.Confidence(), verdict.Score)
	return &Result{
		ID:            id,
		State:         state,
		Authenticity:  verdict.Score,
		Class:         &class,
		ClassName:     class.Name(),
		Confidence:    dist.Confidence(),
		Distribution:  dist.ByName(),
		ImageHeight:   img.Shape().Dim(0),
		ImageWidth:    img.Shape().Dim(1),
		ImageChannels: img.Shape().Dim(2),
	}, nil
}

// classify runs transform bank -> encoder pair -> fusion. Branch tasks run
// on a worker pool bounded by maxParallelism; internal shape-assert panics
// are converted back to errors inside each task, so a failure cancels the
// group instead of killing the process.
func (e *Engine) classify(ctx context.Context, id string, state *State, img *tensors.Tensor) (fusion.Distribution, error) {
	var dist fusion.Distribution

	*state = e.transition(id, *state, StateTransforming)
	var representations [transforms.NumKinds]*tensors.Tensor
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxParallelism)
	for ii, kind := range transforms.Kinds() {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return exceptions.TryCatch[error](func() {
				representations[ii] = e.bank.Apply(kind, img)
			})
		})
	}
	if err := group.Wait(); err != nil {
		return dist, err
	}

	// 8 branches: transform-major, encoder-minor, matching the fusion
	// head's concatenation contract.
	*state = e.transition(id, *state, StateEncoding)
	embeddings := make([][]float32, params.NumBranches)
	group, groupCtx = errgroup.WithContext(ctx)
	group.SetLimit(e.maxParallelism)
	for ti := range transforms.Kinds() {
		for ei, encoderKind := range encoders.Kinds() {
			branch := ti*encoders.NumKinds + ei
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				var embedErr error
				if err := exceptions.TryCatch[error](func() {
					embeddings[branch], embedErr = e.pair.Embed(encoderKind, representations[ti])
				}); err != nil {
					return err
				}
				return embedErr
			})
		}
	}
	if err := group.Wait(); err != nil {
		return dist, err
	}

	*state = e.transition(id, *state, StateFusing)
	return e.classifier.Classify(embeddings)
}

func (e *Engine) transition(id string, from, to State) State {
	klog.V(2).Infof("request %s: %s -> %s", id, from, to)
	return to
}
