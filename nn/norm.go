package nn

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// BatchNorm applies inference-time batch normalization to an [H, W, C]
// tensor, in place:
//
//	y = scale * (x - mean) / sqrt(variance + epsilon) + offset
//
// mean, variance, scale and offset are the per-channel statistics frozen at
// training time. Returns x.
func BatchNorm(x *tensors.Tensor, mean, variance, scale, offset []float32, epsilon float32) *tensors.Tensor {
	shapes.AssertRank(x, 3)
	channels := x.Shape().Dim(2)
	for name, values := range map[string][]float32{
		"mean": mean, "variance": variance, "scale": scale, "offset": offset,
	} {
		if len(values) != channels {
			exceptions.Panicf("nn.BatchNorm: %s has %d values, input %s has %d channels",
				name, len(values), x.Shape(), channels)
		}
	}

	// Fold the statistics into one multiplier and one addend per channel.
	mult := make([]float32, channels)
	add := make([]float32, channels)
	for c := 0; c < channels; c++ {
		inv := float32(1.0 / math.Sqrt(float64(variance[c]+epsilon)))
		mult[c] = scale[c] * inv
		add[c] = offset[c] - mean[c]*mult[c]
	}

	flat := x.Flat()
	for ii := range flat {
		c := ii % channels
		flat[ii] = flat[ii]*mult[c] + add[c]
	}
	return x
}

// LayerNorm normalizes each spatial position of an [H, W, C] tensor over its
// channels, in place, then applies the learned per-channel gain and bias:
//
//	y = gain * (x - mean(x)) / sqrt(var(x) + epsilon) + bias
//
// This is the normalization used between the cascade encoder's stages, and
// behaves identically during training and inference. Returns x.
func LayerNorm(x *tensors.Tensor, gain, bias []float32, epsilon float32) *tensors.Tensor {
	shapes.AssertRank(x, 3)
	height, width, channels := x.Shape().Dim(0), x.Shape().Dim(1), x.Shape().Dim(2)
	if len(gain) != channels || len(bias) != channels {
		exceptions.Panicf("nn.LayerNorm: gain/bias have %d/%d values, input %s has %d channels",
			len(gain), len(bias), x.Shape(), channels)
	}

	flat := x.Flat()
	for pos := 0; pos < height*width; pos++ {
		base := pos * channels
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(flat[base+c])
		}
		mean := sum / float64(channels)
		var sqSum float64
		for c := 0; c < channels; c++ {
			d := float64(flat[base+c]) - mean
			sqSum += d * d
		}
		inv := 1.0 / math.Sqrt(sqSum/float64(channels)+float64(epsilon))
		for c := 0; c < channels; c++ {
			normalized := (float64(flat[base+c]) - mean) * inv
			flat[base+c] = float32(normalized)*gain[c] + bias[c]
		}
	}
	return x
}
