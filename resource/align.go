package resource

// IsPowerOfTwo reports whether a is a non-zero power of two.
func IsPowerOfTwo(a uint64) bool {
	return a != 0 && a&(a-1) == 0
}

// AlignUp rounds v up to the next multiple of align, which must be a power of two.
// An alignment of 0 or 1 returns v unchanged.
func AlignUp(v uint64, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// IsAligned reports whether v is a multiple of align.
func IsAligned(v uint64, align uint64) bool {
	if align <= 1 {
		return true
	}
	return v&(align-1) == 0
}
