package transforms

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// Short-time Fourier transform parameters: 64-sample Hann windows with 50%
// overlap along each image row, the same windowing the trainer used.
const (
	stftWindow = 64
	stftHop    = stftWindow / 2
	stftBins   = stftWindow/2 + 1
)

// stftMagnitude computes a time-frequency representation of the luma plane:
// each row is cut into overlapping Hann-windowed segments, each segment goes
// through a real FFT, and the coefficient magnitudes form one spectral row.
// The [rows, frames*bins] magnitude map is then resized back to the input's
// spatial shape.
func stftMagnitude(luma *tensors.Tensor) *tensors.Tensor {
	height, width := luma.Shape().Dim(0), luma.Shape().Dim(1)
	frames := (width-stftWindow)/stftHop + 1

	window := make([]float64, stftWindow)
	for n := range window {
		window[n] = 0.5 * (1 - math.Cos(2*math.Pi*float64(n)/float64(stftWindow-1)))
	}

	fft := fourier.NewFFT(stftWindow)
	segment := make([]float64, stftWindow)
	coeffs := make([]complex128, stftBins)

	magnitudes := tensors.New(shapes.Make(height, frames*stftBins))
	src, dst := luma.Flat(), magnitudes.Flat()
	for y := 0; y < height; y++ {
		row := src[y*width : (y+1)*width]
		for frame := 0; frame < frames; frame++ {
			start := frame * stftHop
			for n := 0; n < stftWindow; n++ {
				segment[n] = float64(row[start+n]) * window[n]
			}
			fft.Coefficients(coeffs, segment)
			base := y*frames*stftBins + frame*stftBins
			for bin, c := range coeffs {
				dst[base+bin] = float32(cmplx.Abs(c))
			}
		}
	}
	return bilinearResize(magnitudes, height, width)
}
