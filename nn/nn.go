// Package nn implements the numeric kernels the encoders and the fusion
// classifier are built from: 2D convolutions (general and depthwise), dense
// layers, pooling, normalization and activations.
//
// All kernels operate on HWC tensors (height, width, channels) with float32
// values and run on the CPU with fixed loop ordering, so results are
// bit-reproducible for the same inputs and parameters.
//
// Convolutions and pooling allocate their output tensor; normalizations and
// activations modify their input in place and return it, since callers
// always own the intermediate tensors they thread through a network.
package nn
