package controller

import "errors"

var (
	// ErrInvalidModel is returned for an empty, ragged or unsorted measure matrix.
	ErrInvalidModel = errors.New("invalid model")
	// ErrInvalidParameter is returned for an out-of-range constructor or setter argument.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMeasureCountMismatch is returned when a measured vector or a replacement
	// model does not have the expected number of measures.
	ErrMeasureCountMismatch = errors.New("measure count mismatch")
	// ErrInvalidMeasurement is returned when the constraint measure is not positive.
	ErrInvalidMeasurement = errors.New("invalid measurement")
	// ErrUnsortedModel is returned when the constraint column of a model decreases.
	// Errors wrapping it also match ErrInvalidModel.
	ErrUnsortedModel = errors.New("model not sorted by constraint measure")
)
