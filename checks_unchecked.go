//go:build blobhash_unchecked

package blobhash

// StrictChecking reports whether capacity, duplicate-key and missing-key
// violations are reported as errors. This build was compiled with
// -tags blobhash_unchecked.
const StrictChecking = false
