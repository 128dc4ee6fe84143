// Package core holds the pieces shared by every processing stage: the error
// taxonomy, processor options and a few numeric helpers.
package core

import "errors"

// Error kinds. Packages wrap these with context, callers match them with
// errors.Is.
var (
	// ErrConfiguration reports an invalid parameter combination, for example
	// an unknown method name or a frequency band outside the analyzable range.
	ErrConfiguration = errors.New("configuration error")

	// ErrDegenerateInput reports input that cannot be normalized, such as a
	// zero-variance trace or a zero smoothed spectrum.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrInsufficientData reports input that is too short to produce any
	// output. Most stages treat this as a soft condition and return an empty
	// result instead.
	ErrInsufficientData = errors.New("insufficient data")
)
