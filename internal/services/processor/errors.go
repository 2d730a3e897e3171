package processor

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRotation = errors.New("rotation must be a multiple of 90 degrees")
	ErrEmptyMask       = errors.New("mask shape has an empty bounding box")
	ErrInvalidPathData = errors.New("invalid path data")
)

// DecodeError reports capture bytes that could not be read as a raster.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode capture: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a failure to serialize the cropped raster.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s image: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
