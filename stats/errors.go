package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyHistogram is returned when a percentile is requested from a
	// snapshot that recorded no samples.
	ErrEmptyHistogram = errors.New("histogram is empty")

	// ErrInsufficientData is returned when a reading is requested on a
	// channel that has not yet latched any samples.
	ErrInsufficientData = errors.New("insufficient data")
)

// ConfigError reports an invalid construction-time option. It is fatal at
// setup and never produced on the record or read paths.
type ConfigError struct {
	Option  string
	Message string
}

// Error returns the error message.
func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Option, e.Message)
}
