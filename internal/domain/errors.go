package domain

import (
	"errors"
	"fmt"
)

// ErrInsufficientData reports an empty observation window. Callers treat it
// as a "no data" result state, never as a fatal condition.
var ErrInsufficientData = errors.New("insufficient weather data")

// NormalizationError reports a source payload that cannot be mapped into the
// canonical observation schema. Field names the offending provider field.
type NormalizationError struct {
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize observations: field %q: %s", e.Field, e.Reason)
}

// FetchError wraps a provider/network failure. It is owned by the provider
// adapter and surfaced to the scheduler as a failed cycle.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
