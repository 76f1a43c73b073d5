package resource

import (
	"fmt"

	"go.uber.org/zap"
)

// Allocation is a sub range of a memory block handed out by a LinearAllocator.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// LinearAllocator places allocations inside a block of Size bytes. Allocations are kept sorted
// by offset and new ones go into the first gap that fits at the requested alignment.
// Offsets are relative to the start of the block, so the block itself must be aligned at least as
// strictly as any alignment requested from it.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

// Free returns fa to the block. Freeing an allocation twice is a no-op.
func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Allocate reserves size bytes at an offset that is a multiple of align. It returns nil when no
// gap is large enough.
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}

	insert := func(i int, offset uint64) *Allocation {
		na := &Allocation{Offset: offset, Size: size}
		p.allocs = append(p.allocs, nil)
		copy(p.allocs[i+1:], p.allocs[i:])
		p.allocs[i] = na
		return na
	}

	// Offset 0 satisfies every alignment.
	if len(p.allocs) == 0 || p.allocs[0].Offset >= size {
		return insert(0, 0)
	}

	for i := 0; i+1 < len(p.allocs); i++ {
		c := p.allocs[i]
		n := p.allocs[i+1]

		l := AlignUp(c.Offset+c.Size, align)
		h := n.Offset

		if l <= h && h-l >= size {
			Logger().Debug("linear allocator: gap allocation",
				zap.Int("index", i), zap.Uint64("gap", h-l), zap.Uint64("size", size))
			return insert(i+1, l)
		}
	}

	last := p.allocs[len(p.allocs)-1]
	nl := AlignUp(last.Offset+last.Size, align)
	if nl <= p.Size && p.Size-nl >= size {
		return insert(len(p.allocs), nl)
	}
	return nil
}

// Used returns the number of bytes currently allocated, excluding alignment padding.
func (p *LinearAllocator) Used() uint64 {
	var used uint64
	for _, a := range p.allocs {
		used += a.Size
	}
	return used
}

// Len returns the number of live allocations.
func (p *LinearAllocator) Len() int {
	return len(p.allocs)
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
