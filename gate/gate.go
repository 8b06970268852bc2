// Package gate implements the authenticity pre-check: a cheap, non-learned
// score estimating whether an image plausibly shows a cassava leaf at all.
//
// The score combines two heuristics computed on the raw image tensor, before
// any transform work:
//
//   - green-channel dominance: leaves are predominantly green, so the
//     fraction of pixels whose green value clearly exceeds both red and blue
//     is a strong prior (weight 0.6);
//   - local texture: leaves have veins and surface structure, so the mean
//     local gradient magnitude separates them from flat synthetic images
//     (weight 0.4).
//
// The verdict thresholds the score at 0.5. When the gate rejects, the
// orchestrator must suppress the class distribution from the external
// result; the gate itself only scores.
package gate

import (
	"math"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

const (
	// Threshold is the fixed acceptance threshold on the score.
	Threshold = 0.5

	// Sub-score weights; they sum to 1 so the score stays in [0, 1].
	greenWeight   = 0.6
	textureWeight = 0.4

	// greenMargin is how far above red and blue the green channel must be
	// for a pixel to count as green-dominant, on the [0, 1] value scale.
	greenMargin = 0.02

	// textureReference is the mean gradient magnitude that maps to a full
	// texture sub-score; leaves photographed in the field sit well above
	// it, flat renders well below.
	textureReference = 0.08

	// degenerateStdDev: below this luma standard deviation the image is a
	// single flat color and the variance heuristics are meaningless, so
	// the score clamps to 0 instead of dividing garbage by garbage.
	degenerateStdDev = 1e-6
)

// Verdict is the gate's output: the authenticity score, whether the image
// passed the threshold, and whether it was degenerate (fully uniform).
type Verdict struct {
	Score      float64
	Accepted   bool
	Degenerate bool
}

// Score runs the gate heuristics on a raw [H, W, 3] image tensor with
// values in [0, 1]. It never fails: degenerate inputs yield a zero-score
// rejection.
func Score(img *tensors.Tensor) Verdict {
	shapes.AssertRank(img, 3)
	shapes.AssertDims(img, shapes.UncheckedAxis, shapes.UncheckedAxis, 3)

	if isDegenerate(img) {
		return Verdict{Score: 0, Accepted: false, Degenerate: true}
	}
	score := greenWeight*GreenDominance(img) + textureWeight*TextureScore(img)
	return Verdict{Score: score, Accepted: score >= Threshold}
}

// GreenDominance returns the fraction of pixels whose green channel exceeds
// both red and blue by greenMargin. Already in [0, 1].
func GreenDominance(img *tensors.Tensor) float64 {
	flat := img.Flat()
	pixels := len(flat) / 3
	dominant := 0
	for pos := 0; pos < pixels; pos++ {
		r, g, b := flat[pos*3], flat[pos*3+1], flat[pos*3+2]
		if g > r+greenMargin && g > b+greenMargin {
			dominant++
		}
	}
	return float64(dominant) / float64(pixels)
}

// TextureScore returns the mean absolute horizontal and vertical luma
// gradient, scaled by the reference range and clamped to [0, 1].
func TextureScore(img *tensors.Tensor) float64 {
	height, width := img.Shape().Dim(0), img.Shape().Dim(1)
	flat := img.Flat()
	luma := func(y, x int) float64 {
		base := (y*width + x) * 3
		return 0.299*float64(flat[base]) + 0.587*float64(flat[base+1]) + 0.114*float64(flat[base+2])
	}

	var total float64
	var count int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := luma(y, x)
			if x+1 < width {
				total += math.Abs(luma(y, x+1) - v)
				count++
			}
			if y+1 < height {
				total += math.Abs(luma(y+1, x) - v)
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return math.Min(total/float64(count)/textureReference, 1)
}

// isDegenerate reports whether the image is a single flat color (e.g. fully
// black or fully white), measured by the luma standard deviation.
func isDegenerate(img *tensors.Tensor) bool {
	flat := img.Flat()
	pixels := len(flat) / 3
	var sum, sqSum float64
	for pos := 0; pos < pixels; pos++ {
		v := 0.299*float64(flat[pos*3]) + 0.587*float64(flat[pos*3+1]) + 0.114*float64(flat[pos*3+2])
		sum += v
		sqSum += v * v
	}
	mean := sum / float64(pixels)
	variance := sqSum/float64(pixels) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance) < degenerateStdDev
}
