package inference

import (
	"github.com/pkg/errors"

	"github.com/leafscan/fusionnet/encoders"
	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/shapes"
)

// Error taxonomy surfaced to the request layer. Each is a distinguishable
// failure kind the caller can match with errors.Is and map to an external
// response. The first three alias the sentinel of the package that detects
// the condition, so lower-level errors classify without re-wrapping.
var (
	// ErrInvalidInputShape: the image tensor (or an internal feature
	// vector) doesn't match the contracted dimensions. Detected before any
	// transform/encode work for external inputs.
	ErrInvalidInputShape = shapes.ErrMismatch

	// ErrEncoderNumerical: an embedding came out with NaN/Inf values. The
	// call fails fast, no default vector is ever substituted.
	ErrEncoderNumerical = encoders.ErrNonFinite

	// ErrParameterLoad: model parameters missing or shape-incompatible.
	// Fatal at startup, never per-request.
	ErrParameterLoad = params.ErrLoad

	// ErrInference covers every other internal fault. No partial
	// distribution is ever attached to it.
	ErrInference = errors.New("inference failure")
)
