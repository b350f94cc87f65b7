package fixedarena

// Locate finds the lowest offset at which size bytes fit between the live
// blocks in sorted (ascending by offset). base is the arena's base address;
// each candidate offset is rounded up so that base+offset is a multiple of
// align. Gaps are scanned in address order and the first one that fits
// wins. Returns ErrNoFit when no gap is large enough.
func Locate(size, align int, base uintptr, capacity int, sorted []Block) (int, error) {
	if size <= 0 {
		return 0, ErrInvalidSize
	}
	if !isPowerOfTwo(align) {
		return 0, ErrInvalidAlignment
	}

	// fit reports the aligned offset if [start, end) can hold the request.
	fit := func(start, end int) (int, bool) {
		off := int(alignUp(base+uintptr(start), uintptr(align)) - base)
		if off > end || end-off < size {
			return 0, false
		}
		return off, true
	}

	if len(sorted) == 0 {
		if off, ok := fit(0, capacity); ok {
			return off, nil
		}
		return 0, ErrNoFit
	}

	if off, ok := fit(0, sorted[0].Offset); ok {
		return off, nil
	}

	for i := 0; i+1 < len(sorted); i++ {
		if off, ok := fit(sorted[i].End(), sorted[i+1].Offset); ok {
			return off, nil
		}
	}

	if off, ok := fit(sorted[len(sorted)-1].End(), capacity); ok {
		return off, nil
	}
	return 0, ErrNoFit
}
