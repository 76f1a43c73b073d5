package resource

import (
	"fmt"
	"strings"
)

// Handle is an opaque identifier issued by a MemoryAllocator. The zero Handle is never issued.
type Handle uint64

const NullHandle Handle = 0

// PoolID names a memory pool of the backend. DefaultPool selects the allocator's current pool.
type PoolID string

const DefaultPool PoolID = ""

// Usage is a set of buffer usage bits. The values match VkBufferUsageFlagBits so backends can
// pass them through unchanged.
type Usage uint32

const (
	UsageTransferSrc                             Usage = 0x00000001
	UsageTransferDst                             Usage = 0x00000002
	UsageUniformTexelBuffer                      Usage = 0x00000004
	UsageStorageTexelBuffer                      Usage = 0x00000008
	UsageUniformBuffer                           Usage = 0x00000010
	UsageStorageBuffer                           Usage = 0x00000020
	UsageIndexBuffer                             Usage = 0x00000040
	UsageVertexBuffer                            Usage = 0x00000080
	UsageIndirectBuffer                          Usage = 0x00000100
	UsageShaderBindingTable                      Usage = 0x00000400
	UsageShaderDeviceAddress                     Usage = 0x00020000
	UsageAccelerationStructureBuildInputReadOnly Usage = 0x00080000
	UsageAccelerationStructureStorage            Usage = 0x00100000
)

var usageNames = []struct {
	bit  Usage
	name string
}{
	{UsageTransferSrc, "transfer-src"},
	{UsageTransferDst, "transfer-dst"},
	{UsageUniformTexelBuffer, "uniform-texel"},
	{UsageStorageTexelBuffer, "storage-texel"},
	{UsageUniformBuffer, "uniform"},
	{UsageStorageBuffer, "storage"},
	{UsageIndexBuffer, "index"},
	{UsageVertexBuffer, "vertex"},
	{UsageIndirectBuffer, "indirect"},
	{UsageShaderBindingTable, "sbt"},
	{UsageShaderDeviceAddress, "device-address"},
	{UsageAccelerationStructureBuildInputReadOnly, "as-build-input"},
	{UsageAccelerationStructureStorage, "as-storage"},
}

func (u Usage) String() string {
	if u == 0 {
		return "none"
	}
	var parts []string
	rest := u
	for _, n := range usageNames {
		if u&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ImageUsage is a set of image usage bits matching VkImageUsageFlagBits.
type ImageUsage uint32

const (
	ImageUsageTransferSrc     ImageUsage = 0x00000001
	ImageUsageTransferDst     ImageUsage = 0x00000002
	ImageUsageSampled         ImageUsage = 0x00000004
	ImageUsageStorage         ImageUsage = 0x00000008
	ImageUsageColorAttachment ImageUsage = 0x00000010
)

// AllocationFlags describe how the host will access an allocation.
type AllocationFlags uint32

const (
	// AllocationHostAccessSequentialWrite requests mappable memory that the host only writes
	// sequentially, so uncached write-combined memory may be chosen.
	AllocationHostAccessSequentialWrite AllocationFlags = 1 << iota
	// AllocationHostAccessRandom requests mappable, host cached memory.
	AllocationHostAccessRandom
	// AllocationDedicated asks the backend for a dedicated memory block.
	AllocationDedicated
)

// HostVisible reports whether the flags require memory the host can map.
func (f AllocationFlags) HostVisible() bool {
	return f&(AllocationHostAccessSequentialWrite|AllocationHostAccessRandom) != 0
}

// Ownership records who is responsible for freeing a resource.
type Ownership uint8

const (
	// Unowned marks a zero resource: nothing to free.
	Unowned Ownership = iota
	// Owned resources were created by an Allocator and are freed by it.
	Owned
	// Borrowed resources were supplied by the caller and are never freed here.
	Borrowed
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	default:
		return "unowned"
	}
}

// AllocatedResource is a buffer together with its backing allocation.
type AllocatedResource struct {
	Ownership     Ownership
	Allocation    Handle
	Raw           Handle
	DeviceAddress uint64
	Size          uint64
}

// Borrow wraps a caller-owned buffer so it can be used where an AllocatedResource is expected.
// Borrowed resources cannot be mapped or freed through an Allocator.
func Borrow(raw Handle, deviceAddress, size uint64) AllocatedResource {
	return AllocatedResource{
		Ownership:     Borrowed,
		Raw:           raw,
		DeviceAddress: deviceAddress,
		Size:          size,
	}
}

// IsValid reports whether the resource refers to a live buffer of non-zero size.
func (r AllocatedResource) IsValid() bool {
	return r.Raw != NullHandle && r.Size > 0
}

func (r AllocatedResource) String() string {
	return fmt.Sprintf("{%s raw=%d addr=0x%x size=%d}", r.Ownership, r.Raw, r.DeviceAddress, r.Size)
}

// AllocatedImage is an image together with its backing allocation.
type AllocatedImage struct {
	Ownership  Ownership
	Allocation Handle
	Raw        Handle
	Width      uint32
	Height     uint32
	Size       uint64
}

// IsValid reports whether the image refers to live memory.
func (i AllocatedImage) IsValid() bool {
	return i.Raw != NullHandle && i.Size > 0
}
