//go:build unix

package engine

import (
	"fmt"
	"os"
	"syscall"
)

// MmapFile memory-maps a file for reading, letting ParseMmappedFile feed a
// Machine directly from mapped pages instead of copying through a read
// buffer. The OS pages data in on demand, so this scales to files larger
// than available RAM. Callers still drive Consume in BufferSize-sized
// slices of the mapped region to keep chunk accounting and carry-over
// identical to the ParseStream path.
//
// The returned slice is invalid after cleanup is called.
func MmapFile(filename string) ([]byte, func(), error) {
	// Open the file
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	// Get file size
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	if size == 0 {
		// Empty file - return empty slice and cleanup that just closes the file
		return []byte{}, func() { f.Close() }, nil
	}

	// Memory-map the file
	data, err := syscall.Mmap(
		int(f.Fd()),
		0,
		int(size),
		syscall.PROT_READ,
		syscall.MAP_SHARED,
	)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	// Create cleanup function that unmaps and closes
	cleanup := func() {
		_ = syscall.Munmap(data)
		f.Close()
	}

	return data, cleanup, nil
}
