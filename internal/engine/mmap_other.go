//go:build !unix

package engine

import (
	"fmt"
	"os"
)

// MmapFile reads a file into memory on platforms without mmap support,
// providing the same signature as the Unix version so callers don't need
// build tags of their own.
func MmapFile(filename string) ([]byte, func(), error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Provide a no-op cleanup function for API compatibility
	cleanup := func() {}

	return data, cleanup, nil
}
