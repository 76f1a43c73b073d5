package sbt

import (
	"fmt"

	"github.com/celer/vkgrt/resource"
)

// HardwareLimits are the ray tracing properties of the device a table is built for. They are read
// once at device initialization and never change for the lifetime of a table.
type HardwareLimits struct {
	// HandleSize is the size in bytes of an opaque shader group handle.
	HandleSize uint32
	// HandleAlignment is the required alignment of every shader record.
	HandleAlignment uint32
	// BaseAlignment is the required alignment of the device address of every region.
	BaseAlignment uint32
	// ScratchAlignment is the minimum acceleration structure scratch offset alignment, 0 if
	// unknown.
	ScratchAlignment uint32
}

// Validate checks that the handle size is non-zero and all alignments are powers of two.
func (l HardwareLimits) Validate() error {
	if l.HandleSize == 0 {
		return fmt.Errorf("%w: zero handle size", ErrInvalidLimits)
	}
	if !resource.IsPowerOfTwo(uint64(l.HandleAlignment)) {
		return fmt.Errorf("%w: handle alignment %d is not a power of two", ErrInvalidLimits, l.HandleAlignment)
	}
	if !resource.IsPowerOfTwo(uint64(l.BaseAlignment)) {
		return fmt.Errorf("%w: base alignment %d is not a power of two", ErrInvalidLimits, l.BaseAlignment)
	}
	if l.ScratchAlignment != 0 && !resource.IsPowerOfTwo(uint64(l.ScratchAlignment)) {
		return fmt.Errorf("%w: scratch alignment %d is not a power of two", ErrInvalidLimits, l.ScratchAlignment)
	}
	return nil
}

// RecordSize returns the stride of a record carrying payload bytes of inline data after the
// handle. The result is a multiple of HandleAlignment, so both the payload and the next record
// start at legal offsets.
func (l HardwareLimits) RecordSize(payload uint32) uint64 {
	return resource.AlignUp(uint64(payload)+uint64(l.HandleSize), uint64(l.HandleAlignment))
}
