//go:build !linux

package blobhash

// prefaultRegion is a no-op on non-Linux platforms.
func prefaultRegion(data []byte) {}

// adviseRandom is a no-op on non-Linux platforms.
func adviseRandom(data []byte) {}
