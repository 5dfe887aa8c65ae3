package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates constants or gains that cannot be simulated.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnknownGain indicates a gain name outside kp, ki, kd, convergence_rate.
	ErrUnknownGain = errors.New("dynamo: unknown gain")

	// ErrGainUnavailable indicates a gain the active mode does not use.
	ErrGainUnavailable = errors.New("dynamo: gain not available in this mode")

	// ErrUnknownMode indicates a controller mode other than pid or pd.
	ErrUnknownMode = errors.New("dynamo: unknown controller mode")
)

// ConfigurationError reports the offending field of a rejected configuration.
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("dynamo: invalid %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

type SimError struct {
	Tick    uint64
	Time    float64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %s", e.Tick, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}
