//go:build !blobhash_unchecked

package blobhash

// StrictChecking reports whether capacity, duplicate-key and missing-key
// violations are reported as errors. Build with -tags blobhash_unchecked to
// turn them into no-ops and zero-value returns.
const StrictChecking = true
