package resource

// Request describes a buffer allocation handed to a MemoryAllocator.
type Request struct {
	Size  uint64
	Usage Usage
	Flags AllocationFlags
	// Alignment of the backing memory in bytes, 0 for the backend's natural alignment.
	Alignment uint64
	Pool      PoolID
}

// ImageRequest describes a 2D image allocation.
type ImageRequest struct {
	Width         uint32
	Height        uint32
	Format        uint32
	BytesPerPixel uint32
	Usage         ImageUsage
	Flags         AllocationFlags
	Pool          PoolID
}

// Block is what a MemoryAllocator returns for a successful allocation.
type Block struct {
	Allocation    Handle
	Raw           Handle
	DeviceAddress uint64
	Size          uint64
}

// MemoryAllocator is the device memory backend wrapped by Allocator.
//
// Map returns the host view of the whole allocation. Every Map is paired with exactly one Unmap;
// the returned slice must not be used after the matching Unmap.
type MemoryAllocator interface {
	Allocate(req Request) (Block, error)
	AllocateImage(req ImageRequest) (Block, error)
	Free(allocation Handle) error
	Map(allocation Handle) ([]byte, error)
	Unmap(allocation Handle) error
}

// TransferContext records device side copies, typically into a command buffer. Recording a copy
// performs no synchronization; barriers and submission belong to the caller.
type TransferContext interface {
	CmdCopyBuffer(src, dst Handle, size uint64) error
}
