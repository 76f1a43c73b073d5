package resource

import (
	"go.uber.org/zap"
)

// InstanceSize is the size of one VkAccelerationStructureInstanceKHR record.
const InstanceSize = 64

// Allocator creates aligned buffers and images from a MemoryAllocator. It is not safe for
// concurrent use.
type Allocator struct {
	mem     MemoryAllocator
	pool    PoolID
	metrics Metrics
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMetrics replaces the default Prometheus metrics.
func WithMetrics(m Metrics) Option {
	return func(a *Allocator) {
		a.metrics = m
	}
}

// WithPool sets the pool used for requests that pass DefaultPool.
func WithPool(pool PoolID) Option {
	return func(a *Allocator) {
		a.pool = pool
	}
}

// NewAllocator wraps mem.
func NewAllocator(mem MemoryAllocator, opts ...Option) *Allocator {
	a := &Allocator{mem: mem}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = NewPrometheusMetrics("default")
	}
	return a
}

// Memory returns the wrapped backend.
func (a *Allocator) Memory() MemoryAllocator {
	return a.mem
}

// SetCurrentPool changes the pool used for requests that pass DefaultPool.
func (a *Allocator) SetCurrentPool(pool PoolID) {
	a.pool = pool
}

// CurrentPool returns the pool used for requests that pass DefaultPool.
func (a *Allocator) CurrentPool() PoolID {
	return a.pool
}

func (a *Allocator) resolvePool(pool PoolID) PoolID {
	if pool == DefaultPool {
		return a.pool
	}
	return pool
}

func (a *Allocator) fail(class string, e *Error) *Error {
	a.metrics.AllocationFailed(class)
	Logger().Error("allocation failed",
		zap.String("op", e.Op),
		zap.String("kind", string(e.Kind)),
		zap.Uint64("size", e.Size),
		zap.Stringer("usage", e.Usage),
		zap.Error(e))
	return e
}

// CreateBuffer allocates size bytes for usage. A non-zero alignment guarantees that the device
// address of the buffer is a multiple of alignment; 0 leaves alignment to the backend. Shader
// device address usage is always added.
//
// On failure the returned resource is zero and the error is an *Error of kind KindAllocation or
// KindInvalidArgument.
func (a *Allocator) CreateBuffer(size uint64, usage Usage, flags AllocationFlags, alignment uint64, pool PoolID) (AllocatedResource, error) {
	usage |= UsageShaderDeviceAddress

	if size == 0 {
		e := newError("CreateBuffer", KindInvalidArgument, "zero sized buffer")
		e.Usage = usage
		return AllocatedResource{}, a.fail(ClassBuffer, e)
	}
	if alignment != 0 && !IsPowerOfTwo(alignment) {
		e := newError("CreateBuffer", KindInvalidArgument, "alignment %d is not a power of two", alignment)
		e.Size, e.Usage = size, usage
		return AllocatedResource{}, a.fail(ClassBuffer, e)
	}

	blk, err := a.mem.Allocate(Request{
		Size:      size,
		Usage:     usage,
		Flags:     flags,
		Alignment: alignment,
		Pool:      a.resolvePool(pool),
	})
	if err != nil {
		e := newError("CreateBuffer", KindAllocation, "memory allocator rejected request")
		e.Size, e.Usage, e.Cause = size, usage, err
		return AllocatedResource{}, a.fail(ClassBuffer, e)
	}

	if !IsAligned(blk.DeviceAddress, alignment) {
		_ = a.mem.Free(blk.Allocation)
		e := newError("CreateBuffer", KindAllocation, "device address 0x%x is not aligned to %d", blk.DeviceAddress, alignment)
		e.Size, e.Usage = size, usage
		return AllocatedResource{}, a.fail(ClassBuffer, e)
	}

	a.metrics.AllocationSucceeded(ClassBuffer, size)
	Logger().Debug("buffer created",
		zap.Uint64("size", size),
		zap.Stringer("usage", usage),
		zap.Uint64("alignment", alignment),
		zap.Uint64("address", blk.DeviceAddress))

	return AllocatedResource{
		Ownership:     Owned,
		Allocation:    blk.Allocation,
		Raw:           blk.Raw,
		DeviceAddress: blk.DeviceAddress,
		Size:          size,
	}, nil
}

// CreateScratchBuffer allocates acceleration structure build scratch memory aligned to the
// device's scratch offset alignment.
func (a *Allocator) CreateScratchBuffer(size uint64, scratchAlignment uint64) (AllocatedResource, error) {
	return a.CreateBuffer(size, UsageStorageBuffer, 0, scratchAlignment, DefaultPool)
}

// CreateInstanceBuffer allocates a host written buffer for instanceCount acceleration structure
// instances.
func (a *Allocator) CreateInstanceBuffer(instanceCount uint32) (AllocatedResource, error) {
	return a.CreateBuffer(uint64(instanceCount)*InstanceSize, UsageAccelerationStructureBuildInputReadOnly,
		AllocationHostAccessSequentialWrite, 0, DefaultPool)
}

// CreateImage allocates a 2D image. On failure the returned image is zero.
func (a *Allocator) CreateImage(req ImageRequest) (AllocatedImage, error) {
	if req.Width == 0 || req.Height == 0 {
		return AllocatedImage{}, a.fail(ClassImage, newError("CreateImage", KindInvalidArgument, "image extent %dx%d", req.Width, req.Height))
	}
	req.Pool = a.resolvePool(req.Pool)

	blk, err := a.mem.AllocateImage(req)
	if err != nil {
		e := newError("CreateImage", KindAllocation, "memory allocator rejected %dx%d image", req.Width, req.Height)
		e.Cause = err
		return AllocatedImage{}, a.fail(ClassImage, e)
	}

	a.metrics.AllocationSucceeded(ClassImage, blk.Size)
	return AllocatedImage{
		Ownership:  Owned,
		Allocation: blk.Allocation,
		Raw:        blk.Raw,
		Width:      req.Width,
		Height:     req.Height,
		Size:       blk.Size,
	}, nil
}

// DestroyBuffer frees an owned buffer and zeroes r. Zero resources are ignored and borrowed ones
// are detached without being freed, so calling DestroyBuffer twice is safe.
func (a *Allocator) DestroyBuffer(r *AllocatedResource) error {
	if r == nil {
		return nil
	}
	switch r.Ownership {
	case Owned:
		if r.Allocation == NullHandle {
			break
		}
		if err := a.mem.Free(r.Allocation); err != nil {
			Logger().Error("free failed", zap.Uint64("allocation", uint64(r.Allocation)), zap.Error(err))
			return err
		}
		a.metrics.Freed(ClassBuffer, r.Size)
	case Borrowed:
		Logger().Debug("detaching borrowed buffer", zap.Uint64("raw", uint64(r.Raw)))
	}
	*r = AllocatedResource{}
	return nil
}

// DestroyImage frees an owned image and zeroes img.
func (a *Allocator) DestroyImage(img *AllocatedImage) error {
	if img == nil {
		return nil
	}
	if img.Ownership == Owned && img.Allocation != NullHandle {
		if err := a.mem.Free(img.Allocation); err != nil {
			return err
		}
		a.metrics.Freed(ClassImage, img.Size)
	}
	*img = AllocatedImage{}
	return nil
}

// Map returns a span over the first r.Size bytes of the buffer. Every successful Map must be
// paired with one Unmap.
func (a *Allocator) Map(r *AllocatedResource) (*Span, error) {
	if r == nil || !r.IsValid() {
		return nil, newError("Map", KindNotAllocated, "buffer is not allocated")
	}
	if r.Ownership != Owned || r.Allocation == NullHandle {
		return nil, newError("Map", KindNotAllocated, "borrowed buffer %d has no allocation", r.Raw)
	}

	b, err := a.mem.Map(r.Allocation)
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) < r.Size {
		_ = a.mem.Unmap(r.Allocation)
		e := newError("Map", KindOutOfRange, "mapping of %d bytes is smaller than buffer", len(b))
		e.Size = r.Size
		return nil, e
	}
	return NewSpan(b[:r.Size]), nil
}

// Unmap releases a mapping obtained with Map.
func (a *Allocator) Unmap(r *AllocatedResource) error {
	if r == nil || r.Allocation == NullHandle {
		return newError("Unmap", KindNotAllocated, "buffer is not allocated")
	}
	return a.mem.Unmap(r.Allocation)
}

// UpdateBuffer writes data at offset through a temporary mapping.
func (a *Allocator) UpdateBuffer(r *AllocatedResource, data []byte, offset uint64) (err error) {
	span, err := a.Map(r)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := a.Unmap(r); err == nil {
			err = uerr
		}
	}()

	_, err = span.WriteAt(data, int64(offset))
	return err
}

// CopyDeviceToDevice records a copy of size bytes from the start of src to the start of dst.
// Nothing is executed or synchronized here.
func (a *Allocator) CopyDeviceToDevice(src, dst AllocatedResource, size uint64, tc TransferContext) error {
	if !src.IsValid() || !dst.IsValid() {
		return newError("CopyDeviceToDevice", KindNotAllocated, "source or destination buffer is not allocated")
	}
	if size > src.Size || size > dst.Size {
		e := newError("CopyDeviceToDevice", KindOutOfRange, "copy exceeds source (%d) or destination (%d)", src.Size, dst.Size)
		e.Size = size
		return e
	}
	if size == 0 {
		return nil
	}
	return tc.CmdCopyBuffer(src.Raw, dst.Raw, size)
}
