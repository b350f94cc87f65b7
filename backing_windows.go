//go:build windows

package fixedarena

import "errors"

var errMmapUnsupported = errors.New("fixedarena: mmap backing is not supported on windows")

func mapAnonymous(int) ([]byte, error) {
	return nil, errMmapUnsupported
}

func unmapAnonymous([]byte) error {
	return nil
}
