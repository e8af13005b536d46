package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFeature marks a feature whose magnitude or depth is missing
	// or not numeric. Severity math has no sensible default for either.
	ErrMalformedFeature = errors.New("malformed feature")

	// ErrDegenerateGeometry marks a polygon ring with fewer than three vertices.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// FeatureError reports a failure to classify a single input feature.
type FeatureError struct {
	Index int
	ID    string
	Err   error
}

func (e *FeatureError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("feature %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("feature %d: %v", e.Index, e.Err)
}

func (e *FeatureError) Unwrap() error { return e.Err }
