// Package common defines shared constants and sentinel errors used across
// client and server layers of pinsync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors; rejected at the boundary, never stored.
	ErrInvalidPin = errors.New("invalid pin")

	// ErrCorruptStore reports an authoritative document that cannot be parsed.
	ErrCorruptStore = errors.New("corrupt store document")

	// Merge outcomes that are reported instead of applied.
	ErrMergeConflict    = errors.New("merge conflict")
	ErrIntegrityAnomaly = errors.New("data integrity anomaly")

	// Service lifecycle.
	ErrServiceStopped = errors.New("service stopped")
)
