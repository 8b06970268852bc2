// Package fusion combines the 8 branch embeddings into one fused feature
// vector and scores it against the fixed 5-class cassava disease set.
package fusion

import "github.com/leafscan/fusionnet/params"

// Class identifies one of the five disease states, in the fixed order the
// model head was trained with. The numeric values are part of the parameter
// layout contract and must never be reordered.
type Class int

const (
	ClassBacterialBlight Class = iota
	ClassBrownStreak
	ClassGreenMottle
	ClassMosaic
	ClassHealthy

	// NumClasses equals params.NumClasses.
	NumClasses = params.NumClasses
)

// classNames are the human-readable labels, matching the dataset the model
// was trained on.
var classNames = [NumClasses]string{
	"Cassava Bacterial Blight (CBB)",
	"Cassava Brown Streak Disease (CBSD)",
	"Cassava Green Mottle (CGM)",
	"Cassava Mosaic Disease (CMD)",
	"Healthy",
}

// String returns the short identifier.
func (c Class) String() string {
	switch c {
	case ClassBacterialBlight:
		return "bacterial_blight"
	case ClassBrownStreak:
		return "brown_streak"
	case ClassGreenMottle:
		return "green_mottle"
	case ClassMosaic:
		return "mosaic"
	case ClassHealthy:
		return "healthy"
	}
	return "invalid"
}

// Name returns the human-readable class name.
func (c Class) Name() string {
	if c < 0 || c >= NumClasses {
		return "invalid"
	}
	return classNames[c]
}

// Classes returns all classes in their fixed order.
func Classes() [NumClasses]Class {
	return [NumClasses]Class{
		ClassBacterialBlight, ClassBrownStreak, ClassGreenMottle, ClassMosaic, ClassHealthy,
	}
}

// ClassNames returns the human-readable names in class order.
func ClassNames() []string {
	return classNames[:]
}
