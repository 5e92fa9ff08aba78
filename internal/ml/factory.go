package ml

import (
	"errors"
	"fmt"
)

// Supported model-type selectors.
const (
	ModelTypeDepthwise = "depthwise"
	ModelTypeLeafwise  = "leafwise"
)

// ErrUnsupportedModelType is returned for a selector outside the supported
// set, before any training work begins.
var ErrUnsupportedModelType = errors.New("unsupported model type")

// NewClassifier builds an untrained boosting classifier for the given
// model-type selector. Hyperparameter defaults match across back-ends except
// for the growth bound each strategy needs.
func NewClassifier(modelType string) (*GradientBoosting, error) {
	params := Params{
		NEstimators:    100,
		LearningRate:   0.1,
		Lambda:         1.0,
		MinChildWeight: 1.0,
		Patience:       10,
	}

	switch modelType {
	case ModelTypeDepthwise:
		params.MaxDepth = 6
		return &GradientBoosting{Growth: GrowthDepthwise, Params: params}, nil
	case ModelTypeLeafwise:
		params.MaxLeaves = 31
		return &GradientBoosting{Growth: GrowthLeafwise, Params: params}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModelType, modelType)
	}
}
