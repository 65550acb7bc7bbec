package packstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for the codec's error taxonomy (spec §4.1, §7). Use
// errors.Is against these to classify a failure without string matching.
var (
	// ErrTruncated means the reader hit EOF partway through a value.
	ErrTruncated = errors.New("packstream: truncated input")
	// ErrUnknownMarker means a marker byte has no assigned meaning.
	ErrUnknownMarker = errors.New("packstream: unknown marker")
	// ErrMapKey means a map key was decoded as something other than a string.
	ErrMapKey = errors.New("packstream: map key must be a string")
	// ErrTooLarge means a container or string would need a length header
	// wider than 32 bits to encode.
	ErrTooLarge = errors.New("packstream: value too large to encode")
)

func truncatedf(what string, err error) error {
	return fmt.Errorf("packstream: truncated input while reading %s: %w", what, errors.Join(ErrTruncated, err))
}

func unknownMarkerf(marker byte) error {
	return fmt.Errorf("packstream: unknown marker 0x%02X: %w", marker, ErrUnknownMarker)
}

func tooLargef(what string, n int) error {
	return fmt.Errorf("packstream: %s of length %d exceeds %d: %w", what, n, maxEncodeLength, ErrTooLarge)
}
