package nn

import (
	"github.com/gomlx/exceptions"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// outputDim returns the spatial output dimension and the leading padding for
// one axis. With padSame the output is ceil(in/stride) and the input is
// implicitly zero-padded, otherwise only fully-covered windows are taken.
func outputDim(in, kernel, stride int, padSame bool) (out, padBefore int) {
	if padSame {
		out = (in + stride - 1) / stride
		padTotal := (out-1)*stride + kernel - in
		if padTotal < 0 {
			padTotal = 0
		}
		padBefore = padTotal / 2
		return
	}
	out = (in-kernel)/stride + 1
	return
}

// Conv2D computes a 2D convolution (cross-correlation, as usual for
// inference) of x with the given kernel.
//
//   - x: [height, width, inChannels]
//   - kernel: [kernelH, kernelW, inChannels, outChannels]
//   - bias: per-output-channel, may be nil
//
// With padSame the input is zero-padded so the output spatial size is
// ceil(size/stride).
func Conv2D(x, kernel *tensors.Tensor, bias []float32, stride int, padSame bool) *tensors.Tensor {
	shapes.AssertRank(x, 3)
	shapes.AssertRank(kernel, 4)
	height, width, inChannels := x.Shape().Dim(0), x.Shape().Dim(1), x.Shape().Dim(2)
	kernelH, kernelW := kernel.Shape().Dim(0), kernel.Shape().Dim(1)
	outChannels := kernel.Shape().Dim(3)
	shapes.AssertDims(kernel, kernelH, kernelW, inChannels, outChannels)
	if bias != nil && len(bias) != outChannels {
		exceptions.Panicf("nn.Conv2D: bias has %d values, kernel has %d output channels", len(bias), outChannels)
	}
	if stride < 1 {
		exceptions.Panicf("nn.Conv2D: stride must be >= 1, got %d", stride)
	}

	outH, padTop := outputDim(height, kernelH, stride, padSame)
	outW, padLeft := outputDim(width, kernelW, stride, padSame)
	output := tensors.New(shapes.Make(outH, outW, outChannels))

	xFlat, kFlat, outFlat := x.Flat(), kernel.Flat(), output.Flat()
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			outBase := (oy*outW + ox) * outChannels
			for ky := 0; ky < kernelH; ky++ {
				iy := oy*stride + ky - padTop
				if iy < 0 || iy >= height {
					continue
				}
				for kx := 0; kx < kernelW; kx++ {
					ix := ox*stride + kx - padLeft
					if ix < 0 || ix >= width {
						continue
					}
					xBase := (iy*width + ix) * inChannels
					kBase := ((ky*kernelW + kx) * inChannels) * outChannels
					for ic := 0; ic < inChannels; ic++ {
						xValue := xFlat[xBase+ic]
						kRow := kFlat[kBase+ic*outChannels:]
						for oc := 0; oc < outChannels; oc++ {
							outFlat[outBase+oc] += xValue * kRow[oc]
						}
					}
				}
			}
			if bias != nil {
				for oc := 0; oc < outChannels; oc++ {
					outFlat[outBase+oc] += bias[oc]
				}
			}
		}
	}
	return output
}

// DepthwiseConv2D convolves each channel of x with its own single-channel
// filter, the depthwise half of a separable convolution.
//
//   - x: [height, width, channels]
//   - kernel: [kernelH, kernelW, channels]
//   - bias: per-channel, may be nil
func DepthwiseConv2D(x, kernel *tensors.Tensor, bias []float32, stride int, padSame bool) *tensors.Tensor {
	shapes.AssertRank(x, 3)
	shapes.AssertRank(kernel, 3)
	height, width, channels := x.Shape().Dim(0), x.Shape().Dim(1), x.Shape().Dim(2)
	kernelH, kernelW := kernel.Shape().Dim(0), kernel.Shape().Dim(1)
	shapes.AssertDims(kernel, kernelH, kernelW, channels)
	if bias != nil && len(bias) != channels {
		exceptions.Panicf("nn.DepthwiseConv2D: bias has %d values, input has %d channels", len(bias), channels)
	}
	if stride < 1 {
		exceptions.Panicf("nn.DepthwiseConv2D: stride must be >= 1, got %d", stride)
	}

	outH, padTop := outputDim(height, kernelH, stride, padSame)
	outW, padLeft := outputDim(width, kernelW, stride, padSame)
	output := tensors.New(shapes.Make(outH, outW, channels))

	xFlat, kFlat, outFlat := x.Flat(), kernel.Flat(), output.Flat()
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			outBase := (oy*outW + ox) * channels
			for ky := 0; ky < kernelH; ky++ {
				iy := oy*stride + ky - padTop
				if iy < 0 || iy >= height {
					continue
				}
				for kx := 0; kx < kernelW; kx++ {
					ix := ox*stride + kx - padLeft
					if ix < 0 || ix >= width {
						continue
					}
					xBase := (iy*width + ix) * channels
					kBase := (ky*kernelW + kx) * channels
					for c := 0; c < channels; c++ {
						outFlat[outBase+c] += xFlat[xBase+c] * kFlat[kBase+c]
					}
				}
			}
			if bias != nil {
				for c := 0; c < channels; c++ {
					outFlat[outBase+c] += bias[c]
				}
			}
		}
	}
	return output
}
