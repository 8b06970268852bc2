package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafscan/fusionnet/fusion"
	"github.com/leafscan/fusionnet/inference"
)

func TestJSONAssemblerAcceptedResult(t *testing.T) {
	class := fusion.ClassMosaic
	result := &inference.Result{
		ID:           "req-1",
		State:        inference.StateCompleted,
		Authenticity: 0.82,
		Class:        &class,
		ClassName:    class.Name(),
		Confidence:   0.61,
		Distribution: fusion.Distribution{0.1, 0.1, 0.09, 0.61, 0.1}.ByName(),
		ImageHeight:  224, ImageWidth: 224, ImageChannels: 3,
	}

	doc, err := JSONAssembler{}.Assemble(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, "req-1.json", doc.Filename)
	assert.Equal(t, "application/json", doc.ContentType)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(doc.Content, &decoded))
	assert.Equal(t, class.Name(), decoded["predicted_class"])
	assert.Len(t, decoded["all_probabilities"], fusion.NumClasses)
}

func TestJSONAssemblerSuppressesClassOnRejection(t *testing.T) {
	result := &inference.Result{
		ID:           "req-2",
		State:        inference.StateRejected,
		Authenticity: 0.2,
		Rejected:     true,
		ImageHeight:  224, ImageWidth: 224, ImageChannels: 3,
	}

	doc, err := JSONAssembler{}.Assemble(context.Background(), result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(doc.Content, &decoded))
	assert.Equal(t, true, decoded["rejected"])
	assert.NotContains(t, decoded, "predicted_class")
	assert.NotContains(t, decoded, "predicted_class_id")
	assert.NotContains(t, decoded, "all_probabilities")
	assert.NotContains(t, decoded, "confidence")
}

func TestJSONAssemblerErrors(t *testing.T) {
	_, err := JSONAssembler{}.Assemble(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = JSONAssembler{}.Assemble(ctx, &inference.Result{ID: "req-3"})
	assert.ErrorIs(t, err, context.Canceled)
}
