package cloth

import (
	"errors"
	"fmt"
)

// Domain errors for cloth construction and stepping.
var (
	// ErrInvalidResolution indicates fewer than two vertices per row.
	ErrInvalidResolution = errors.New("cloth: resolution must be at least 2")

	// ErrInvalidSize indicates a non-positive or non-finite cloth size.
	ErrInvalidSize = errors.New("cloth: size must be positive")

	// ErrInvalidMass indicates a non-positive vertex mass.
	ErrInvalidMass = errors.New("cloth: vertex mass must be positive")

	// ErrInvalidStiffness indicates a non-positive spring stiffness.
	ErrInvalidStiffness = errors.New("cloth: stiffness must be positive")

	// ErrInvalidDamping indicates a negative damping coefficient.
	ErrInvalidDamping = errors.New("cloth: damping must not be negative")

	// ErrInvalidSphere indicates a negative or non-finite sphere radius.
	ErrInvalidSphere = errors.New("cloth: sphere radius must not be negative")

	// ErrInvalidTimestep indicates a negative or non-finite delta time.
	ErrInvalidTimestep = errors.New("cloth: timestep must be finite and not negative")

	// ErrInvalidWorkgroupSize indicates a workgroup of fewer than one item.
	ErrInvalidWorkgroupSize = errors.New("cloth: workgroup size must be at least 1")

	// ErrStageFault indicates a stage dispatch did not complete.
	ErrStageFault = errors.New("cloth: stage dispatch failed")
)

// ConfigError reports which field rejected a configuration.
type ConfigError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s (%s=%g)", e.Wrapped.Error(), e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// StepError wraps a failure inside a frame. The committed state is the one
// from before the failed frame.
type StepError struct {
	Frame   uint64
	Stage   string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d (%s): %v", e.Frame, e.Stage, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
