package params

import (
	"github.com/pkg/errors"

	"github.com/leafscan/fusionnet/types/tensors"
)

// vecKind tells the synthetic initializer what a vector is used for, so it
// can pick a numerically sane distribution (variances must be positive,
// scales close to one).
type vecKind int

const (
	vecBias vecKind = iota
	vecMean
	vecVariance
	vecScale
	vecOffset
	vecGain
)

type tensorRef struct {
	name string
	dst  **tensors.Tensor
	want []int
}

type vectorRef struct {
	name string
	dst  *[]float32
	want int
	kind vecKind
}

// tensorRefs enumerates every weight tensor with its name (the checkpoint
// key) and expected shape, in a fixed order.
func (m *Model) tensorRefs() []tensorRef {
	refs := []tensorRef{
		{"transform/frequency_filter", &m.Transform.FrequencyFilter, []int{InputHeight, InputWidth}},
		{"mobile/stem/kernel", &m.Mobile.Stem.Kernel, []int{3, 3, InputChannels, MobileStemChannels}},
		{"cascade/patchify/kernel", &m.Cascade.Patchify.Kernel, []int{4, 4, InputChannels, CascadePatchChannels}},
		{"cascade/stage1/conv/kernel", &m.Cascade.Stages[0].Conv.Kernel, []int{3, 3, CascadePatchChannels, CascadePatchChannels}},
		{"cascade/downsample1/kernel", &m.Cascade.Downsample[0].Kernel, []int{2, 2, CascadePatchChannels, CascadeStage1Channels}},
		{"cascade/stage2/conv/kernel", &m.Cascade.Stages[1].Conv.Kernel, []int{3, 3, CascadeStage1Channels, CascadeStage1Channels}},
		{"cascade/downsample2/kernel", &m.Cascade.Downsample[1].Kernel, []int{2, 2, CascadeStage1Channels, CascadeStage2Channels}},
		{"mobile/head/weights", &m.Mobile.Head.Weights, []int{MobileBlock3Channels, EmbeddingDim}},
		{"cascade/head/weights", &m.Cascade.Head.Weights, []int{CascadeStage2Channels, EmbeddingDim}},
		{"fusion/head/weights", &m.Fusion.Head.Weights, []int{FusedDim, NumClasses}},
	}
	channels := [4]int{MobileStemChannels, MobileBlock1Channels, MobileBlock2Channels, MobileBlock3Channels}
	names := [3]string{"mobile/block1", "mobile/block2", "mobile/block3"}
	for ii := range m.Mobile.Blocks {
		block := &m.Mobile.Blocks[ii]
		in, out := channels[ii], channels[ii+1]
		refs = append(refs,
			tensorRef{names[ii] + "/depthwise/kernel", &block.Depthwise.Kernel, []int{3, 3, in}},
			tensorRef{names[ii] + "/pointwise/kernel", &block.Pointwise.Kernel, []int{1, 1, in, out}},
		)
	}
	return refs
}

// vectorRefs enumerates every weight vector (biases and normalization
// statistics) with its name, expected length and kind, in a fixed order.
func (m *Model) vectorRefs() []vectorRef {
	refs := []vectorRef{
		{"mobile/stem/bias", &m.Mobile.Stem.Bias, MobileStemChannels, vecBias},
		{"cascade/patchify/bias", &m.Cascade.Patchify.Bias, CascadePatchChannels, vecBias},
		{"cascade/stage1/conv/bias", &m.Cascade.Stages[0].Conv.Bias, CascadePatchChannels, vecBias},
		{"cascade/stage1/norm/gain", &m.Cascade.Stages[0].Norm.Gain, CascadePatchChannels, vecGain},
		{"cascade/stage1/norm/bias", &m.Cascade.Stages[0].Norm.Bias, CascadePatchChannels, vecBias},
		{"cascade/downsample1/bias", &m.Cascade.Downsample[0].Bias, CascadeStage1Channels, vecBias},
		{"cascade/stage2/conv/bias", &m.Cascade.Stages[1].Conv.Bias, CascadeStage1Channels, vecBias},
		{"cascade/stage2/norm/gain", &m.Cascade.Stages[1].Norm.Gain, CascadeStage1Channels, vecGain},
		{"cascade/stage2/norm/bias", &m.Cascade.Stages[1].Norm.Bias, CascadeStage1Channels, vecBias},
		{"cascade/downsample2/bias", &m.Cascade.Downsample[1].Bias, CascadeStage2Channels, vecBias},
		{"cascade/final_norm/gain", &m.Cascade.FinalNorm.Gain, CascadeStage2Channels, vecGain},
		{"cascade/final_norm/bias", &m.Cascade.FinalNorm.Bias, CascadeStage2Channels, vecBias},
		{"mobile/head/bias", &m.Mobile.Head.Bias, EmbeddingDim, vecBias},
		{"cascade/head/bias", &m.Cascade.Head.Bias, EmbeddingDim, vecBias},
		{"fusion/head/bias", &m.Fusion.Head.Bias, NumClasses, vecBias},
	}
	refs = append(refs, batchNormRefs("mobile/stem_norm", &m.Mobile.StemNorm, MobileStemChannels)...)
	channels := [4]int{MobileStemChannels, MobileBlock1Channels, MobileBlock2Channels, MobileBlock3Channels}
	names := [3]string{"mobile/block1", "mobile/block2", "mobile/block3"}
	for ii := range m.Mobile.Blocks {
		block := &m.Mobile.Blocks[ii]
		in, out := channels[ii], channels[ii+1]
		refs = append(refs,
			vectorRef{names[ii] + "/depthwise/bias", &block.Depthwise.Bias, in, vecBias},
			vectorRef{names[ii] + "/pointwise/bias", &block.Pointwise.Bias, out, vecBias},
		)
		refs = append(refs, batchNormRefs(names[ii]+"/depthwise_norm", &block.DepthwiseNorm, in)...)
		refs = append(refs, batchNormRefs(names[ii]+"/pointwise_norm", &block.PointwiseNorm, out)...)
	}
	return refs
}

func batchNormRefs(prefix string, norm *BatchNorm, channels int) []vectorRef {
	return []vectorRef{
		{prefix + "/mean", &norm.Mean, channels, vecMean},
		{prefix + "/variance", &norm.Variance, channels, vecVariance},
		{prefix + "/scale", &norm.Scale, channels, vecScale},
		{prefix + "/offset", &norm.Offset, channels, vecOffset},
	}
}

// Validate checks that every parameter is present, finite and has the shape
// the architecture contract requires. Any failure wraps ErrLoad: the process
// must not serve requests with a model that fails validation.
func (m *Model) Validate() error {
	for _, ref := range m.tensorRefs() {
		t := *ref.dst
		if t == nil {
			return errors.Wrapf(ErrLoad, "parameter %q is missing", ref.name)
		}
		if err := t.Shape().CheckDims(ref.want...); err != nil {
			return errors.Wrapf(ErrLoad, "parameter %q: %v", ref.name, err)
		}
		if !t.IsFinite() {
			return errors.Wrapf(ErrLoad, "parameter %q contains non-finite values", ref.name)
		}
	}
	for _, ref := range m.vectorRefs() {
		v := *ref.dst
		if v == nil {
			return errors.Wrapf(ErrLoad, "parameter %q is missing", ref.name)
		}
		if len(v) != ref.want {
			return errors.Wrapf(ErrLoad, "parameter %q has %d values, wanted %d", ref.name, len(v), ref.want)
		}
		if !tensors.FiniteSlice(v) {
			return errors.Wrapf(ErrLoad, "parameter %q contains non-finite values", ref.name)
		}
		if ref.kind == vecVariance {
			for _, value := range v {
				if value <= 0 {
					return errors.Wrapf(ErrLoad, "parameter %q has non-positive variance %g", ref.name, value)
				}
			}
		}
	}
	return nil
}
