package contracts

import (
	"errors"
	"fmt"
)

// ErrJoinKey is returned when strategy and benchmark tracks cannot be aligned by year
var ErrJoinKey = errors.New("join key mismatch")

// ConfigurationError rejects a run before any processing starts
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

// ComputationError reports a statistic that is undefined for the given input
type ComputationError struct {
	Metric  string
	Message string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation: %s: %s", e.Metric, e.Message)
}

// DataGapError is the soft per-year rejection; it is recorded, never returned
type DataGapError struct {
	Year   int
	Reason string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("year %d: %s", e.Year, e.Reason)
}

// Gap reasons
const (
	GapMissingReference = "reference country not eligible"
	GapTooFewCountries  = "fewer eligible countries than top_n"
)

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsComputationError reports whether err wraps a ComputationError
func IsComputationError(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}
