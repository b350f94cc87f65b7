//go:build !windows

package fixedarena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func mapAnonymous(size int) ([]byte, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("fixedarena: mmap %d bytes: %w", size, err)
	}
	return buf, nil
}

func unmapAnonymous(buf []byte) error {
	if err := unix.Munmap(buf); err != nil {
		return fmt.Errorf("fixedarena: munmap: %w", err)
	}
	return nil
}
