package sbt

import (
	"fmt"
	"strings"
)

// GroupKind selects one of the four regions of a shader binding table.
type GroupKind uint8

const (
	RayGen GroupKind = iota
	Miss
	HitGroup
	Callable

	// NumGroupKinds is the number of regions in a table.
	NumGroupKinds = 4
)

// Kinds lists every GroupKind in dispatch order.
var Kinds = [NumGroupKinds]GroupKind{RayGen, Miss, HitGroup, Callable}

var kindNames = [NumGroupKinds]string{"raygen", "miss", "hit", "callable"}

// Valid reports whether k names a region.
func (k GroupKind) Valid() bool {
	return k < NumGroupKinds
}

func (k GroupKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("GroupKind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseGroupKind accepts the names printed by GroupKind.String, case insensitively.
func ParseGroupKind(s string) (GroupKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return GroupKind(i), nil
		}
	}
	switch name {
	case "ray-gen", "raygeneration":
		return RayGen, nil
	case "hitgroup", "hit-group":
		return HitGroup, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGroupKind, s)
}
