package dither

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned (wrapped) for every precondition failure in
// the engine. Callers should test for it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError describes which precondition was violated and at which
// component boundary.
type ArgumentError struct {
	Component string
	Reason    string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Component, ErrInvalidArgument, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalid(component, format string, args ...interface{}) error {
	return &ArgumentError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

// Component names used in ArgumentError.
const (
	ComponentBayer     = "bayer"
	ComponentTiler     = "tiler"
	ComponentQuantizer = "quantizer"
	ComponentPipeline  = "pipeline"
)
