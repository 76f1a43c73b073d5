/*
Package resource allocates GPU buffers and images whose backing memory honours an explicit byte
alignment, and exposes their mapped contents through bounds-checked spans.

The package does not talk to a graphics API itself. It wraps a MemoryAllocator, which provides the
four primitives every backend has (allocate, free, map, unmap). The root vkg package implements
MemoryAllocator on top of Vulkan device memory pools; HostMemory implements it over ordinary Go
memory so layouts can be planned and tested without a GPU.

Resources are owned either by this package (Owned) or by the caller (Borrowed). Only owned
resources are ever returned to the MemoryAllocator, and destroying a resource zeroes it so that a
second destroy is a harmless no-op.

Allocation failures never abort: CreateBuffer logs the failure, records it in the allocator
metrics and returns a zero AllocatedResource together with an *Error. Callers check
AllocatedResource.IsValid before use.
*/
package resource
