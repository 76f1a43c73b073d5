package resource

import (
	"sync"
)

const (
	// HostNaturalAlignment is the alignment HostMemory uses when a request asks for none.
	HostNaturalAlignment = 16
	// HostMaxAlignment is the strictest alignment HostMemory can honour.
	HostMaxAlignment = 1 << 20

	hostPoolAddressShift = 40
)

type hostPool struct {
	id    PoolID
	base  uint64
	arena []byte
	alloc *LinearAllocator
}

type hostBlock struct {
	pool     *hostPool
	alloc    *Allocation
	mapCount int
}

// HostMemory is a MemoryAllocator backed by Go memory. Every pool is one arena of PoolSize bytes
// with a synthetic device address range starting at a multiple of 1<<40, so device addresses are
// stable and aligned exactly like the arena offsets. Freed memory is not cleared, the same as real
// device memory.
type HostMemory struct {
	PoolSize uint64

	mu     sync.Mutex
	pools  map[PoolID]*hostPool
	blocks map[Handle]*hostBlock
	next   Handle
}

var _ MemoryAllocator = (*HostMemory)(nil)

// NewHostMemory creates a host backend whose pools hold poolSize bytes each.
func NewHostMemory(poolSize uint64) *HostMemory {
	return &HostMemory{
		PoolSize: poolSize,
		pools:    make(map[PoolID]*hostPool),
		blocks:   make(map[Handle]*hostBlock),
	}
}

func (h *HostMemory) pool(id PoolID) *hostPool {
	p, ok := h.pools[id]
	if !ok {
		p = &hostPool{
			id:    id,
			base:  uint64(len(h.pools)+1) << hostPoolAddressShift,
			arena: make([]byte, h.PoolSize),
			alloc: &LinearAllocator{Size: h.PoolSize},
		}
		h.pools[id] = p
	}
	return p
}

func (h *HostMemory) allocate(op string, pool PoolID, size, align uint64) (Block, error) {
	if size == 0 {
		return Block{}, newError(op, KindInvalidArgument, "zero sized allocation")
	}
	if align == 0 {
		align = HostNaturalAlignment
	}
	if !IsPowerOfTwo(align) || align > HostMaxAlignment {
		return Block{}, newError(op, KindInvalidArgument, "unsupported alignment %d", align)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.pool(pool)
	a := p.alloc.Allocate(size, align)
	if a == nil {
		e := newError(op, KindAllocation, "pool %q exhausted", string(pool))
		e.Size = size
		return Block{}, e
	}

	h.next++
	handle := h.next
	h.blocks[handle] = &hostBlock{pool: p, alloc: a}

	return Block{
		Allocation:    handle,
		Raw:           handle,
		DeviceAddress: p.base + a.Offset,
		Size:          size,
	}, nil
}

// Allocate implements MemoryAllocator.
func (h *HostMemory) Allocate(req Request) (Block, error) {
	return h.allocate("Allocate", req.Pool, req.Size, req.Alignment)
}

// AllocateImage implements MemoryAllocator. Images are tightly packed rows of BytesPerPixel.
func (h *HostMemory) AllocateImage(req ImageRequest) (Block, error) {
	bpp := uint64(req.BytesPerPixel)
	if bpp == 0 {
		bpp = 4
	}
	return h.allocate("AllocateImage", req.Pool, uint64(req.Width)*uint64(req.Height)*bpp, 0)
}

func (h *HostMemory) block(op string, handle Handle) (*hostBlock, error) {
	b, ok := h.blocks[handle]
	if !ok {
		return nil, newError(op, KindUnknownHandle, "handle %d", handle)
	}
	return b, nil
}

// Free implements MemoryAllocator.
func (h *HostMemory) Free(handle Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, err := h.block("Free", handle)
	if err != nil {
		return err
	}
	b.pool.alloc.Free(b.alloc)
	delete(h.blocks, handle)
	return nil
}

// Map implements MemoryAllocator.
func (h *HostMemory) Map(handle Handle) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, err := h.block("Map", handle)
	if err != nil {
		return nil, err
	}
	b.mapCount++
	return b.bytes(), nil
}

// Unmap implements MemoryAllocator.
func (h *HostMemory) Unmap(handle Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, err := h.block("Unmap", handle)
	if err != nil {
		return err
	}
	if b.mapCount == 0 {
		return newError("Unmap", KindNotMapped, "handle %d", handle)
	}
	b.mapCount--
	return nil
}

func (b *hostBlock) bytes() []byte {
	s, e := b.alloc.Offset, b.alloc.Offset+b.alloc.Size
	return b.pool.arena[s:e:e]
}

// MapCount returns the number of outstanding maps of handle.
func (h *HostMemory) MapCount(handle Handle) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.blocks[handle]; ok {
		return b.mapCount
	}
	return 0
}

// Live returns the number of allocations that have not been freed.
func (h *HostMemory) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}

type hostCopy struct {
	src, dst Handle
	size     uint64
}

// HostTransfer is a TransferContext for HostMemory. Copies are only recorded by CmdCopyBuffer
// and executed in order by Submit, mirroring a command buffer.
type HostTransfer struct {
	mem  *HostMemory
	cmds []hostCopy
}

var _ TransferContext = (*HostTransfer)(nil)

// NewTransfer starts an empty command list against h.
func (h *HostMemory) NewTransfer() *HostTransfer {
	return &HostTransfer{mem: h}
}

// CmdCopyBuffer implements TransferContext.
func (t *HostTransfer) CmdCopyBuffer(src, dst Handle, size uint64) error {
	t.mem.mu.Lock()
	defer t.mem.mu.Unlock()

	for _, handle := range []Handle{src, dst} {
		b, err := t.mem.block("CmdCopyBuffer", handle)
		if err != nil {
			return err
		}
		if size > b.alloc.Size {
			return newError("CmdCopyBuffer", KindOutOfRange, "copy of %d bytes exceeds buffer %d of %d bytes", size, handle, b.alloc.Size)
		}
	}
	t.cmds = append(t.cmds, hostCopy{src: src, dst: dst, size: size})
	return nil
}

// Len returns the number of recorded copies.
func (t *HostTransfer) Len() int {
	return len(t.cmds)
}

// Submit executes the recorded copies and resets the list.
func (t *HostTransfer) Submit() error {
	t.mem.mu.Lock()
	defer t.mem.mu.Unlock()

	defer func() { t.cmds = t.cmds[:0] }()
	for _, c := range t.cmds {
		src, err := t.mem.block("Submit", c.src)
		if err != nil {
			return err
		}
		dst, err := t.mem.block("Submit", c.dst)
		if err != nil {
			return err
		}
		copy(dst.bytes()[:c.size], src.bytes()[:c.size])
	}
	return nil
}
