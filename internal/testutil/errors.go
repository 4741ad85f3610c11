// Package testutil provides mock errors shared across the kernel's test
// files, for simulating failure scenarios in fakes (a Runner, a
// StatusReader) without each package inventing its own sentinel.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

var (
	// ErrMockNetwork simulates a transport-layer failure (dial, timeout,
	// connection reset) in a fake dependency.
	ErrMockNetwork = errors.New("network error")

	// ErrMockNotFound simulates a fake dependency reporting a missing resource.
	ErrMockNotFound = errors.New("not found")
)
