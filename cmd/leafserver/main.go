// leafserver exposes the inference engine over HTTP: it owns the plumbing
// the core treats as external -- upload parsing, image decoding, resizing to
// the model's input shape and JSON responses.
//
// Configuration comes from the environment (optionally a .env file):
//
//	LEAFSERVER_ADDR            listen address (default ":8000")
//	LEAFSERVER_CHECKPOINT      path to the model checkpoint
//	LEAFSERVER_SYNTHETIC_SEED  seed for synthetic parameters, demo runs only
package main

import (
	"encoding/json"
	"flag"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/leafscan/fusionnet/inference"
	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/report"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// maxUploadBytes caps the accepted file size.
const maxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".tiff": true,
}

type server struct {
	engine    *inference.Engine
	assembler report.Assembler
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	_ = godotenv.Load()

	addr := os.Getenv("LEAFSERVER_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	model, err := loadModel()
	if err != nil {
		klog.Fatalf("Cannot start without model parameters: %v", err)
	}
	engine, err := inference.NewEngine(model)
	if err != nil {
		klog.Fatalf("Cannot start inference engine: %v", err)
	}
	s := &server{engine: engine, assembler: report.JSONAssembler{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /model-info", s.handleModelInfo)
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("POST /report", s.handleReport)

	klog.Infof("leafserver listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		klog.Fatalf("Server error: %v", err)
	}
}

// loadModel reads the checkpoint named by the environment. The synthetic
// fallback exists for demo runs only and must be asked for explicitly; a
// missing checkpoint otherwise refuses to start.
func loadModel() (*params.Model, error) {
	if path := os.Getenv("LEAFSERVER_CHECKPOINT"); path != "" {
		return params.Load(path)
	}
	if seedText := os.Getenv("LEAFSERVER_SYNTHETIC_SEED"); seedText != "" {
		seed, err := strconv.ParseInt(seedText, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing LEAFSERVER_SYNTHETIC_SEED=%q", seedText)
		}
		klog.Warningf("Using synthetic model parameters (seed %d) -- predictions are meaningless", seed)
		return params.NewSynthetic(seed), nil
	}
	return nil, errors.Wrap(params.ErrLoad, "LEAFSERVER_CHECKPOINT is not set")
}

func (s *server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "fusionnet inference API is running",
		"status":  "healthy",
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	info := s.engine.ModelInfo()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"model_loaded":   true,
		"num_classes":    info.NumClasses,
		"num_parameters": info.NumParameters,
	})
}

func (s *server) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ModelInfo())
}

func (s *server) handlePredict(w http.ResponseWriter, r *http.Request) {
	result, filename, ok := s.classifyUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*inference.Result
		Filename string `json:"filename"`
	}{Result: result, Filename: filename})
}

// handleReport runs the same classification as /predict but returns the
// assembled report document instead of the raw result.
func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	result, filename, ok := s.classifyUpload(w, r)
	if !ok {
		return
	}
	doc, err := s.assembler.Assemble(r.Context(), result)
	if err != nil {
		klog.Errorf("Report assembly failed for %q: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "internal report error")
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(doc.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Content); err != nil {
		klog.Errorf("Writing report: %v", err)
	}
}

// classifyUpload parses the multipart upload, decodes and resizes the image
// and runs inference. On failure it writes the HTTP error itself and
// reports ok=false.
func (s *server) classifyUpload(w http.ResponseWriter, r *http.Request) (result *inference.Result, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or oversized \"file\" upload")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "invalid image file, supported formats: jpg, jpeg, png, bmp, tiff")
		return nil, "", false
	}

	img, err := imaging.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not decode image: "+err.Error())
		return nil, "", false
	}

	tensor := imageToTensor(imaging.Resize(img, params.InputWidth, params.InputHeight, imaging.Lanczos))
	result, err = s.engine.Classify(r.Context(), tensor)
	if err != nil {
		switch {
		case errors.Is(err, inference.ErrInvalidInputShape):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			klog.Errorf("Inference failed for %q: %v", header.Filename, err)
			writeError(w, http.StatusInternalServerError, "internal inference error")
		}
		return nil, "", false
	}
	return result, header.Filename, true
}

// imageToTensor converts a decoded image to the model's [H, W, 3] tensor
// with values in [0, 1].
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

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		klog.Errorf("Writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
