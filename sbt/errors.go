package sbt

import "errors"

var (
	// ErrInvalidLimits is returned for hardware limits that cannot describe a real device.
	ErrInvalidLimits = errors.New("sbt: invalid hardware limits")
	// ErrInvalidGroupKind is returned when a GroupKind is not one of the four region kinds.
	ErrInvalidGroupKind = errors.New("sbt: invalid group kind")
	// ErrCapacityExceeded is returned by Rebuild when a descriptor needs more bytes than a region
	// buffer holds. The table is left untouched.
	ErrCapacityExceeded = errors.New("sbt: capacity exceeded")
	// ErrQueryFailure wraps a failed group handle query. The affected record is skipped.
	ErrQueryFailure = errors.New("sbt: group handle query failed")
	// ErrSizeMismatch is returned by CopyInto when a destination buffer is smaller than the
	// source region.
	ErrSizeMismatch = errors.New("sbt: region size mismatch")
	// ErrRegionTooLarge is returned by Build when the bytes a kind needs overflow 64 bits. The
	// kind is left empty.
	ErrRegionTooLarge = errors.New("sbt: region size overflows")
	// ErrGroupIndexOutOfRange is returned for a record index past the active records of a region.
	ErrGroupIndexOutOfRange = errors.New("sbt: group index out of range")
	// ErrPayloadTooLarge is returned when inline data does not fit after the handle of a record.
	ErrPayloadTooLarge = errors.New("sbt: payload exceeds record")
	// ErrNilTable is returned when an operation that needs a table is given nil.
	ErrNilTable = errors.New("sbt: nil table")
)
