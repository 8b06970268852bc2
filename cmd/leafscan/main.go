// leafscan classifies leaf images from the command line and pretty-prints
// the result, mainly for eyeballing a checkpoint.
//
// Usage:
//
//	leafscan -checkpoint fusionnet.ckpt leaf1.jpg leaf2.jpg
//	leafscan -seed 42 leaf.jpg   # synthetic weights, demo only
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/leafscan/fusionnet/inference"
	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

var (
	flagCheckpoint = flag.String("checkpoint", "", "path to the model checkpoint")
	flagSeed       = flag.Int64("seed", -1, "use synthetic parameters with this seed instead of a checkpoint")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	rejectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	predStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: leafscan [-checkpoint path | -seed n] image...")
		os.Exit(2)
	}

	var model *params.Model
	switch {
	case *flagCheckpoint != "":
		model = must.M1(params.Load(*flagCheckpoint))
	case *flagSeed >= 0:
		fmt.Println(dimStyle.Render("(synthetic weights -- predictions are meaningless)"))
		model = params.NewSynthetic(*flagSeed)
	default:
		klog.Fatalf("Either -checkpoint or -seed is required")
	}
	engine := must.M1(inference.NewEngine(model))

	for _, path := range flag.Args() {
		classify(engine, path)
	}
}

func classify(engine *inference.Engine, path string) {
	img := must.M1(imaging.Open(path))
	tensor := imageToTensor(imaging.Resize(img, params.InputWidth, params.InputHeight, imaging.Lanczos))
	result := must.M1(engine.Classify(context.Background(), tensor))

	fmt.Println(titleStyle.Render(path))
	if result.Rejected {
		fmt.Println(rejectedStyle.Render(
			fmt.Sprintf("  rejected: does not look like a cassava leaf (authenticity %.3f)", result.Authenticity)))
		return
	}
	fmt.Printf("  %s  (confidence %.1f%%, authenticity %.3f)\n",
		predStyle.Render(result.ClassName), 100*result.Confidence, result.Authenticity)
	for _, entry := range result.Distribution {
		bar := strings.Repeat("█", int(entry.Probability*30+0.5))
		fmt.Printf("  %-38s %6.2f%% %s\n", entry.Name, 100*entry.Probability, dimStyle.Render(bar))
	}
}

func imageToTensor(img image.Image) *tensors.Tensor {
	bounds := img.Bounds()
	height, width := bounds.Dy(), bounds.Dx()
	tensor := tensors.New(shapes.Make(height, width, 3))
	flat := tensor.Flat()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			base := (y*width + x) * 3
			flat[base] = float32(r) / 0xffff
			flat[base+1] = float32(g) / 0xffff
			flat[base+2] = float32(b) / 0xffff
		}
	}
	return tensor
}
