package params

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/x448/float16"
	"k8s.io/klog/v2"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

// Checkpoint format: a gob stream with a magic/version header and one named
// entry per weight tensor/vector, values stored as IEEE float16 bits. Names
// are the ones produced by tensorRefs/vectorRefs, which is the layout
// contract shared with the trainer.

const (
	checkpointMagic   = "fusionnet-checkpoint"
	checkpointVersion = 1
)

type checkpointTensor struct {
	Name string
	Dims []int
	Data []uint16
}

type checkpointVector struct {
	Name string
	Data []uint16
}

type checkpointFile struct {
	Magic   string
	Version int
	Tensors []checkpointTensor
	Vectors []checkpointVector
}

// Save writes the model to path in the checkpoint format Load reads.
// Weights are stored as float16, which is lossy but sufficient for the
// trained parameters and halves the file size.
func (m *Model) Save(path string) error {
	file := checkpointFile{Magic: checkpointMagic, Version: checkpointVersion}
	for _, ref := range m.tensorRefs() {
		t := *ref.dst
		if t == nil {
			return errors.Wrapf(ErrLoad, "cannot save: parameter %q is missing", ref.name)
		}
		file.Tensors = append(file.Tensors, checkpointTensor{
			Name: ref.name,
			Dims: t.Shape().Clone().Dimensions,
			Data: toBits(t.Flat()),
		})
	}
	for _, ref := range m.vectorRefs() {
		if *ref.dst == nil {
			return errors.Wrapf(ErrLoad, "cannot save: parameter %q is missing", ref.name)
		}
		file.Vectors = append(file.Vectors, checkpointVector{Name: ref.name, Data: toBits(*ref.dst)})
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "params.Save(%q)", path)
	}
	if err = gob.NewEncoder(f).Encode(&file); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "params.Save(%q): encoding", path)
	}
	return errors.Wrapf(f.Close(), "params.Save(%q)", path)
}

// Load reads a checkpoint written by Save (or by the trainer's exporter) and
// returns a validated Model. Any failure wraps ErrLoad and is fatal for
// serving: a process without valid parameters must not answer requests.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "opening checkpoint %q: %v", path, err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "stat checkpoint %q: %v", path, err)
	}

	bar := progressbar.DefaultBytes(info.Size(), "loading model parameters")
	var file checkpointFile
	if err = gob.NewDecoder(io.TeeReader(f, bar)).Decode(&file); err != nil {
		return nil, errors.Wrapf(ErrLoad, "decoding checkpoint %q: %v", path, err)
	}
	_ = bar.Finish()

	if file.Magic != checkpointMagic {
		return nil, errors.Wrapf(ErrLoad, "%q is not a fusionnet checkpoint", path)
	}
	if file.Version != checkpointVersion {
		return nil, errors.Wrapf(ErrLoad, "checkpoint %q has version %d, this build reads version %d",
			path, file.Version, checkpointVersion)
	}

	m := &Model{}
	byName := make(map[string]checkpointTensor, len(file.Tensors))
	for _, entry := range file.Tensors {
		byName[entry.Name] = entry
	}
	for _, ref := range m.tensorRefs() {
		entry, found := byName[ref.name]
		if !found {
			return nil, errors.Wrapf(ErrLoad, "checkpoint %q is missing tensor %q", path, ref.name)
		}
		shape := shapes.Shape{Dimensions: entry.Dims}
		if len(entry.Data) != shape.Size() {
			return nil, errors.Wrapf(ErrLoad, "checkpoint %q tensor %q has %d values for shape %s",
				path, ref.name, len(entry.Data), shape)
		}
		*ref.dst = tensors.FromFlat(shape, fromBits(entry.Data))
	}
	vecByName := make(map[string]checkpointVector, len(file.Vectors))
	for _, entry := range file.Vectors {
		vecByName[entry.Name] = entry
	}
	for _, ref := range m.vectorRefs() {
		entry, found := vecByName[ref.name]
		if !found {
			return nil, errors.Wrapf(ErrLoad, "checkpoint %q is missing vector %q", path, ref.name)
		}
		*ref.dst = fromBits(entry.Data)
	}

	if err = m.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "checkpoint %q", path)
	}
	klog.Infof("Loaded %s model parameters (%s on disk) from %s",
		humanize.Comma(m.NumParameters()), humanize.Bytes(uint64(info.Size())), path)
	return m, nil
}

func toBits(values []float32) []uint16 {
	bits := make([]uint16, len(values))
	for ii, v := range values {
		bits[ii] = float16.Fromfloat32(v).Bits()
	}
	return bits
}

func fromBits(bits []uint16) []float32 {
	values := make([]float32, len(bits))
	for ii, b := range bits {
		values[ii] = float16.Frombits(b).Float32()
	}
	return values
}
