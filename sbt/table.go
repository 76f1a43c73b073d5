package sbt

import (
	"fmt"

	"github.com/celer/vkgrt/resource"
	"go.uber.org/zap"
)

// Table is a shader binding table: one region per GroupKind, each backed by its own buffer.
// A Table exclusively owns its buffers; release them with Engine.Destroy.
type Table struct {
	regions     [NumGroupKinds]Region
	buffers     [NumGroupKinds]resource.AllocatedResource
	recordSizes [NumGroupKinds]uint64
}

func checkKind(k GroupKind) error {
	if !k.Valid() {
		Logger().Warn("invalid group kind", zap.Uint8("kind", uint8(k)))
		return fmt.Errorf("%w: %s", ErrInvalidGroupKind, k)
	}
	return nil
}

// Region returns the region of kind k.
func (t *Table) Region(k GroupKind) (Region, error) {
	if err := checkKind(k); err != nil {
		return Region{}, err
	}
	return t.regions[k], nil
}

// Buffer returns the buffer backing kind k. It is zero for kinds that were never allocated.
func (t *Table) Buffer(k GroupKind) (resource.AllocatedResource, error) {
	if err := checkKind(k); err != nil {
		return resource.AllocatedResource{}, err
	}
	return t.buffers[k], nil
}

// RecordSize returns the record size last used to write kind k.
func (t *Table) RecordSize(k GroupKind) (uint64, error) {
	if err := checkKind(k); err != nil {
		return 0, err
	}
	return t.recordSizes[k], nil
}

// Capacity returns how many records of the current record size the buffer of kind k holds.
func (t *Table) Capacity(k GroupKind) (uint64, error) {
	if err := checkKind(k); err != nil {
		return 0, err
	}
	if t.recordSizes[k] == 0 {
		return 0, nil
	}
	return t.buffers[k].Size / t.recordSizes[k], nil
}

// Regions returns raygen, miss, hit and callable regions in that order. Empty kinds are zero
// regions and must still be passed to the dispatch.
func (t *Table) Regions() [NumGroupKinds]Region {
	return t.regions
}
