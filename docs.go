/*
Package vkg is the Vulkan backend for ray tracing resources built with the resource and sbt
packages. It wraps the handful of Vulkan objects needed to place buffers and images in device
memory, fill them from the host and copy between them on the GPU, and leaves everything else to
the native vulkan-go APIs.

Native Vulkan terms

	Instance	the connection to the Vulkan loader
	PhysicalDevice	the physical hardware device
	Device		a logical device, the target of most of the vulkan apis
	Queue		a queue which work (command buffers) may be submitted to
	DeviceMemory	an allocation of memory on the host or device for use by buffers and images
	Buffer		a range of data (shader binding table, instances, scratch, ...)
	Image		a 2D image, typically a ray tracing storage target
	Pipeline	a ray tracing pipeline whose shader groups provide opaque handles

A ray tracing application using this package roughly does:

	1. Initialize, create an Instance from an App and pick one of Instance.RayTracingDevices
	2. Create a Device with RayTracingExtensions enabled, setting Device.BufferAddress and
	   Device.MemoryAllocateNext so buffers get device addresses
	3. Wrap a DeviceAllocator in a resource.Allocator
	4. Build the pipeline and wrap it in a RayTracingPipeline
	5. Build a shader binding table with sbt.NewEngine(alloc, props.Limits())
	6. Pass Table.Regions() to vkCmdTraceRaysKHR

About this package

Native vulkan structures are exposed in all the objects prefixed with 'VK', so applications are
not limited by what this package provides.

DeviceAllocator:
	sub-allocates buffers and images from pooled device memory at the alignment the caller asks for
Transfer:
	records device to device copies of allocator managed buffers into a command buffer
Queue.SubmitOneTime:
	records, submits and waits for a one off command buffer
*/
package vkg
