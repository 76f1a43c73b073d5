package sbt

import "fmt"

// GroupSet describes the records of one region.
type GroupSet struct {
	// Indices are pipeline group indices. Record i holds the handle of group Indices[i].
	Indices []uint32
	// PayloadSize is the number of inline data bytes following each handle.
	PayloadSize uint32
	// Reserve is the number of extra records allocated for growth by Rebuild.
	Reserve uint32
}

// Count returns the number of records in use.
func (g GroupSet) Count() uint32 {
	return uint32(len(g.Indices))
}

// Empty reports whether the set needs no buffer at all.
func (g GroupSet) Empty() bool {
	return len(g.Indices) == 0 && g.Reserve == 0
}

// Descriptor selects the shader groups of every region.
type Descriptor struct {
	Groups [NumGroupKinds]GroupSet
}

// Set replaces the group set of kind k.
func (d *Descriptor) Set(k GroupKind, g GroupSet) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidGroupKind, k)
	}
	d.Groups[k] = g
	return nil
}

// Get returns the group set of kind k.
func (d *Descriptor) Get(k GroupKind) (GroupSet, error) {
	if !k.Valid() {
		return GroupSet{}, fmt.Errorf("%w: %s", ErrInvalidGroupKind, k)
	}
	return d.Groups[k], nil
}
