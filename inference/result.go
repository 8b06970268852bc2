package inference

import (
	"github.com/leafscan/fusionnet/fusion"
)

// Result is the structured outcome handed to the response/report layer.
//
// For an accepted image it carries the predicted class, the confidence (the
// maximum probability) and the full distribution in fixed class order. For a
// rejected image those fields are nil/empty -- never fabricated -- and only
// the authenticity score and the rejection flag are set.
type Result struct {
	// ID is the per-request identifier, for log correlation.
	ID string `json:"request_id"`

	// State is the terminal state: rejected or completed. Failures return
	// an error instead of a Result.
	State State `json:"-"`

	// Authenticity is the gate score in [0, 1], always present.
	Authenticity float64 `json:"authenticity_score"`

	// Rejected is set when the gate score fell below the threshold.
	Rejected bool `json:"rejected"`

	// Class and ClassName identify the predicted class; nil/empty when
	// rejected.
	Class     *fusion.Class `json:"predicted_class_id,omitempty"`
	ClassName string        `json:"predicted_class,omitempty"`

	// Confidence is the maximum probability; zero when rejected.
	Confidence float64 `json:"confidence,omitempty"`

	// Distribution lists class probabilities in the fixed class order;
	// nil when rejected.
	Distribution []fusion.ClassProbability `json:"all_probabilities,omitempty"`

	// Image metadata echoed for the external response.
	ImageHeight   int `json:"image_height"`
	ImageWidth    int `json:"image_width"`
	ImageChannels int `json:"image_channels"`
}

// ModelInfo summarizes the loaded model for diagnostics endpoints.
type ModelInfo struct {
	InputHeight   int      `json:"input_height"`
	InputWidth    int      `json:"input_width"`
	InputChannels int      `json:"input_channels"`
	NumClasses    int      `json:"num_classes"`
	ClassNames    []string `json:"class_names"`
	Transforms    []string `json:"transforms"`
	NumParameters int64    `json:"num_parameters"`
}
