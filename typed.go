package fixedarena

import (
	"math"
	"unsafe"
)

// Alloc returns a zeroed *T placed in the arena at T's natural alignment.
// T must not contain Go pointers: the arena is not scanned by the
// garbage collector.
func Alloc[T any](a *Allocator) (*T, error) {
	var zero T
	size := max(int(unsafe.Sizeof(zero)), 1)
	b, err := a.AllocBytes(size, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	clear(b)
	return (*T)(unsafe.Pointer(&b[0])), nil
}

// AllocSlice returns a zeroed []T of length n placed in the arena.
// The same restriction on Go pointers as Alloc applies. A length whose
// byte size overflows int is rejected as ErrInsufficientTotal with the
// size saturated to math.MaxInt.
func AllocSlice[T any](a *Allocator, n int) ([]T, error) {
	var zero T
	elem := max(int(unsafe.Sizeof(zero)), 1)
	align := int(unsafe.Alignof(zero))
	if n <= 0 {
		return nil, a.reject(n, align, ErrInvalidSize)
	}
	if n > math.MaxInt/elem {
		return nil, a.reject(math.MaxInt, align, ErrInsufficientTotal)
	}
	b, err := a.AllocBytes(elem*n, align)
	if err != nil {
		return nil, err
	}
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
}

// Free releases a value returned by Alloc.
func Free[T any](a *Allocator, p *T) error {
	var zero T
	return a.Deallocate(unsafe.Pointer(p), max(int(unsafe.Sizeof(zero)), 1))
}

// FreeSlice releases a slice returned by AllocSlice.
func FreeSlice[T any](a *Allocator, s []T) error {
	var zero T
	return a.Deallocate(unsafe.Pointer(unsafe.SliceData(s)), max(int(unsafe.Sizeof(zero)), 1)*len(s))
}
