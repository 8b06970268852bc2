package inference

// State tracks a request through the orchestrator's pipeline:
//
//	received -> gating -> (rejected | transforming -> encoding -> fusing -> completed)
//
// with failed as the terminal state of any stage error. Rejected, completed
// and failed are terminal.
type State int

const (
	StateReceived State = iota
	StateGating
	StateRejected
	StateTransforming
	StateEncoding
	StateFusing
	StateCompleted
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateGating:
		return "gating"
	case StateRejected:
		return "rejected"
	case StateTransforming:
		return "transforming"
	case StateEncoding:
		return "encoding"
	case StateFusing:
		return "fusing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "invalid"
}

// Terminal reports whether the state ends a request.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateCompleted || s == StateFailed
}
