package vkg

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// BufferAddressFunc returns the device address of a buffer, normally a thin cgo wrapper around
// vkGetBufferDeviceAddress(KHR), which vulkan-go does not load.
type BufferAddressFunc func(device vk.Device, buffer vk.Buffer) uint64

type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device

	// BufferAddress resolves buffer device addresses. Without it every address is 0.
	BufferAddress BufferAddressFunc

	// MemoryAllocateNext is chained into every VkMemoryAllocateInfo, typically a C allocated
	// VkMemoryAllocateFlagsInfo with VK_MEMORY_ALLOCATE_DEVICE_ADDRESS_BIT set.
	MemoryAllocateNext unsafe.Pointer
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.VKDevice))
}

func (d *Device) GetQueue(qf *QueueFamily) *Queue {
	var vkq vk.Queue

	vk.GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0, &vkq)

	return &Queue{
		Device:      d,
		QueueFamily: qf,
		VKQueue:     vkq,
	}
}

// Allocate allocates sizeInBytes of device memory from the first memory type allowed by
// memoryTypeBits that has all of memoryProperties.
func (d *Device) Allocate(sizeInBytes uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlagBits) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, memoryProperties)
	if err != nil {
		return nil, err
	}

	var allocateInfo = vk.MemoryAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeMemoryAllocateInfo
	allocateInfo.PNext = d.MemoryAllocateNext
	allocateInfo.AllocationSize = vk.DeviceSize(sizeInBytes)
	allocateInfo.MemoryTypeIndex = typeIndex

	var deviceMemory vk.DeviceMemory

	err = vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return nil, err
	}

	return &DeviceMemory{
		Device:          d,
		VKDeviceMemory:  deviceMemory,
		Size:            sizeInBytes,
		MemoryTypeIndex: typeIndex,
		Properties:      memoryProperties,
	}, nil
}
