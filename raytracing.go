package vkg

import (
	"github.com/celer/vkgrt/sbt"
	vk "github.com/vulkan-go/vulkan"
)

// Device extensions needed for ray tracing pipelines and their shader binding tables.
const (
	KHRRayTracingPipelineExtensionName     = "VK_KHR_ray_tracing_pipeline"
	KHRAccelerationStructureExtensionName  = "VK_KHR_acceleration_structure"
	KHRBufferDeviceAddressExtensionName    = "VK_KHR_buffer_device_address"
	KHRDeferredHostOperationsExtensionName = "VK_KHR_deferred_host_operations"
	KHRSpirv14ExtensionName                = "VK_KHR_spirv_1_4"
)

// RayTracingExtensions lists the extensions to enable on a ray tracing device.
var RayTracingExtensions = []string{
	KHRRayTracingPipelineExtensionName,
	KHRAccelerationStructureExtensionName,
	KHRBufferDeviceAddressExtensionName,
	KHRDeferredHostOperationsExtensionName,
	KHRSpirv14ExtensionName,
}

// Flag bits newer than the vulkan-go headers.
const (
	BufferUsageShaderBindingTableBit                      vk.BufferUsageFlagBits = 0x00000400
	BufferUsageShaderDeviceAddressBit                     vk.BufferUsageFlagBits = 0x00020000
	BufferUsageAccelerationStructureBuildInputReadOnlyBit vk.BufferUsageFlagBits = 0x00080000
	BufferUsageAccelerationStructureStorageBit            vk.BufferUsageFlagBits = 0x00100000

	// MemoryAllocateDeviceAddressBit goes into VkMemoryAllocateFlagsInfo.flags of
	// Device.MemoryAllocateNext.
	MemoryAllocateDeviceAddressBit uint32 = 0x00000002
)

// RayTracingProperties holds the fields of VkPhysicalDeviceRayTracingPipelinePropertiesKHR and
// VkPhysicalDeviceAccelerationStructurePropertiesKHR that shape ray tracing resources. vulkan-go
// has no bindings for these structs, so callers fill it from their own query.
type RayTracingProperties struct {
	ShaderGroupHandleSize              uint32
	MaxRayRecursionDepth               uint32
	MaxShaderGroupStride               uint32
	ShaderGroupBaseAlignment           uint32
	ShaderGroupHandleCaptureReplaySize uint32
	MaxRayDispatchInvocationCount      uint32
	ShaderGroupHandleAlignment         uint32
	MaxRayHitAttributeSize             uint32

	MinAccelerationStructureScratchOffsetAlignment uint32
}

// Limits returns the hardware limits a shader binding table is laid out with.
func (p RayTracingProperties) Limits() sbt.HardwareLimits {
	return sbt.HardwareLimits{
		HandleSize:       p.ShaderGroupHandleSize,
		HandleAlignment:  p.ShaderGroupHandleAlignment,
		BaseAlignment:    p.ShaderGroupBaseAlignment,
		ScratchAlignment: p.MinAccelerationStructureScratchOffsetAlignment,
	}
}
