package vkg

import (
	"fmt"

	"github.com/celer/vkgrt/resource"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// DefaultPoolSize is the size of each device memory pool created by a DeviceAllocator.
const DefaultPoolSize = 64 << 20

// Vulkan limits the number of memory allocations an application can make, so buffers and images
// are sub-allocated from a few large pools. A pool is one DeviceMemory per pool name and memory
// property set, carved up by a resource.LinearAllocator.
type memoryPool struct {
	id         resource.PoolID
	properties vk.MemoryPropertyFlagBits
	memory     *DeviceMemory
	alloc      *resource.LinearAllocator
}

type poolKey struct {
	id         resource.PoolID
	properties vk.MemoryPropertyFlagBits
}

type deviceBlock struct {
	pool       *memoryPool
	allocation *resource.Allocation
	dedicated  *DeviceMemory
	offset     uint64
	size       uint64
	buffer     *Buffer
	image      *Image
}

func (b *deviceBlock) memory() *DeviceMemory {
	if b.dedicated != nil {
		return b.dedicated
	}
	return b.pool.memory
}

// DeviceAllocator implements resource.MemoryAllocator on Vulkan device memory. It is not safe
// for concurrent use.
type DeviceAllocator struct {
	Device   *Device
	PoolSize uint64

	pools  map[poolKey]*memoryPool
	blocks map[resource.Handle]*deviceBlock
	next   resource.Handle
}

var _ resource.MemoryAllocator = (*DeviceAllocator)(nil)

// NewDeviceAllocator creates an allocator whose pools hold poolSize bytes, DefaultPoolSize when
// poolSize is 0.
func (d *Device) NewDeviceAllocator(poolSize uint64) *DeviceAllocator {
	if poolSize == 0 {
		poolSize = DefaultPoolSize
	}
	return &DeviceAllocator{
		Device:   d,
		PoolSize: poolSize,
		pools:    make(map[poolKey]*memoryPool),
		blocks:   make(map[resource.Handle]*deviceBlock),
	}
}

// memoryProperties selects host visible coherent memory for mappable allocations and device local
// memory otherwise.
func memoryProperties(flags resource.AllocationFlags) vk.MemoryPropertyFlagBits {
	if flags.HostVisible() {
		return vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	return vk.MemoryPropertyDeviceLocalBit
}

func allocationError(op string, size uint64, cause error) *resource.Error {
	return &resource.Error{Op: op, Kind: resource.KindAllocation, Size: size, Detail: "device memory", Cause: cause}
}

// place finds memory for size bytes at align. Dedicated requests and requests larger than a pool
// get their own DeviceMemory.
func (a *DeviceAllocator) place(op string, id resource.PoolID, flags resource.AllocationFlags, size, align uint64, typeBits uint32) (*deviceBlock, error) {
	props := memoryProperties(flags)

	if flags&resource.AllocationDedicated != 0 || size > a.PoolSize {
		mem, err := a.Device.Allocate(size, typeBits, props)
		if err != nil {
			return nil, allocationError(op, size, err)
		}
		return &deviceBlock{dedicated: mem, size: size}, nil
	}

	key := poolKey{id: id, properties: props}
	p, ok := a.pools[key]
	if !ok {
		mem, err := a.Device.Allocate(a.PoolSize, typeBits, props)
		if err != nil {
			return nil, allocationError(op, a.PoolSize, err)
		}
		p = &memoryPool{id: id, properties: props, memory: mem, alloc: &resource.LinearAllocator{Size: a.PoolSize}}
		a.pools[key] = p
		Logger().Debug("memory pool created",
			zap.String("pool", string(id)), zap.Uint64("size", a.PoolSize), zap.Uint32("memoryType", mem.MemoryTypeIndex))
	}

	if typeBits&(1<<p.memory.MemoryTypeIndex) == 0 {
		return nil, allocationError(op, size, fmt.Errorf("pool %q memory type %d not allowed by 0x%x", id, p.memory.MemoryTypeIndex, typeBits))
	}

	alloc := p.alloc.Allocate(size, align)
	if alloc == nil {
		return nil, allocationError(op, size, fmt.Errorf("pool %q exhausted", id))
	}
	return &deviceBlock{pool: p, allocation: alloc, offset: alloc.Offset, size: size}, nil
}

func (a *DeviceAllocator) release(b *deviceBlock) {
	if b.dedicated != nil {
		b.dedicated.Destroy()
		return
	}
	b.pool.alloc.Free(b.allocation)
}

func (a *DeviceAllocator) register(b *deviceBlock) resource.Handle {
	a.next++
	a.blocks[a.next] = b
	return a.next
}

// Allocate implements resource.MemoryAllocator.
func (a *DeviceAllocator) Allocate(req resource.Request) (resource.Block, error) {
	buf, err := a.Device.CreateBuffer(req.Size, vk.BufferUsageFlags(req.Usage))
	if err != nil {
		return resource.Block{}, allocationError("Allocate", req.Size, err)
	}

	mr := buf.MemoryRequirements()
	align := uint64(mr.Alignment)
	if req.Alignment > align {
		align = req.Alignment
	}

	blk, err := a.place("Allocate", req.Pool, req.Flags, uint64(mr.Size), align, mr.MemoryTypeBits)
	if err != nil {
		buf.Destroy()
		return resource.Block{}, err
	}
	if err := buf.Bind(blk.memory(), blk.offset); err != nil {
		a.release(blk)
		buf.Destroy()
		return resource.Block{}, allocationError("Allocate", req.Size, err)
	}
	blk.buffer = buf

	h := a.register(blk)
	return resource.Block{
		Allocation:    h,
		Raw:           h,
		DeviceAddress: buf.DeviceAddress(),
		Size:          req.Size,
	}, nil
}

// AllocateImage implements resource.MemoryAllocator. Host visible images use linear tiling.
func (a *DeviceAllocator) AllocateImage(req resource.ImageRequest) (resource.Block, error) {
	format := vk.Format(req.Format)
	if format == vk.FormatUndefined {
		format = vk.FormatR8g8b8a8Unorm
	}
	tiling := vk.ImageTilingOptimal
	if req.Flags.HostVisible() {
		tiling = vk.ImageTilingLinear
	}

	img, err := a.Device.CreateImage(vk.Extent2D{Width: req.Width, Height: req.Height}, format, tiling, vk.ImageUsageFlags(req.Usage))
	if err != nil {
		return resource.Block{}, allocationError("AllocateImage", 0, err)
	}

	mr := img.MemoryRequirements()
	blk, err := a.place("AllocateImage", req.Pool, req.Flags, uint64(mr.Size), uint64(mr.Alignment), mr.MemoryTypeBits)
	if err != nil {
		img.Destroy()
		return resource.Block{}, err
	}
	if err := img.Bind(blk.memory(), blk.offset); err != nil {
		a.release(blk)
		img.Destroy()
		return resource.Block{}, allocationError("AllocateImage", uint64(mr.Size), err)
	}
	blk.image = img

	h := a.register(blk)
	return resource.Block{Allocation: h, Raw: h, Size: uint64(mr.Size)}, nil
}

func (a *DeviceAllocator) block(op string, h resource.Handle) (*deviceBlock, error) {
	b, ok := a.blocks[h]
	if !ok {
		return nil, &resource.Error{Op: op, Kind: resource.KindUnknownHandle, Detail: fmt.Sprintf("handle %d", h)}
	}
	return b, nil
}

// Free implements resource.MemoryAllocator.
func (a *DeviceAllocator) Free(h resource.Handle) error {
	b, err := a.block("Free", h)
	if err != nil {
		return err
	}
	if b.buffer != nil {
		b.buffer.Destroy()
	}
	if b.image != nil {
		b.image.Destroy()
	}
	a.release(b)
	delete(a.blocks, h)
	return nil
}

// Map implements resource.MemoryAllocator. The backing memory stays mapped until every block
// mapped from it has been unmapped.
func (a *DeviceAllocator) Map(h resource.Handle) ([]byte, error) {
	b, err := a.block("Map", h)
	if err != nil {
		return nil, err
	}
	bytes, err := b.memory().Bytes(b.offset, b.size)
	if err != nil {
		return nil, &resource.Error{Op: "Map", Kind: resource.KindNotMapped, Size: b.size, Cause: err}
	}
	return bytes, nil
}

// Unmap implements resource.MemoryAllocator.
func (a *DeviceAllocator) Unmap(h resource.Handle) error {
	b, err := a.block("Unmap", h)
	if err != nil {
		return err
	}
	if err := b.memory().Unmap(); err != nil {
		return &resource.Error{Op: "Unmap", Kind: resource.KindNotMapped, Cause: err}
	}
	return nil
}

// Buffer returns the Vulkan buffer behind a raw handle issued by Allocate.
func (a *DeviceAllocator) Buffer(h resource.Handle) (*Buffer, bool) {
	b, ok := a.blocks[h]
	if !ok || b.buffer == nil {
		return nil, false
	}
	return b.buffer, true
}

// Image returns the Vulkan image behind a raw handle issued by AllocateImage.
func (a *DeviceAllocator) Image(h resource.Handle) (*Image, bool) {
	b, ok := a.blocks[h]
	if !ok || b.image == nil {
		return nil, false
	}
	return b.image, true
}

// LogDetails logs the occupancy of every pool.
func (a *DeviceAllocator) LogDetails() {
	for _, p := range a.pools {
		Logger().Info("memory pool",
			zap.String("pool", string(p.id)),
			zap.Uint32("properties", uint32(p.properties)),
			zap.Uint64("size", p.alloc.Size),
			zap.Uint64("used", p.alloc.Used()),
			zap.Int("allocations", p.alloc.Len()))
	}
}

// Destroy frees every live resource and all pool memory.
func (a *DeviceAllocator) Destroy() {
	for h := range a.blocks {
		_ = a.Free(h)
	}
	for k, p := range a.pools {
		p.memory.Destroy()
		delete(a.pools, k)
	}
}
