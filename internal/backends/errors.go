package backends

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a model whose category has no registered backend.
// It is never retried.
type ConfigurationError struct {
	Model    string
	Category string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no backend registered for category %q (model %q)", e.Category, e.Model)
}

// TransportError wraps a failed backend call. Callers may retry it.
type TransportError struct {
	Category string
	Model    string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s backend call failed (model %s): %v", e.Category, e.Model, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
