package vkg

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device.
//
// Vulkan allows a memory object to be mapped only once, so Map and Unmap are reference counted:
// the first Map maps the whole object and the last Unmap unmaps it.
type DeviceMemory struct {
	Device          *Device
	VKDeviceMemory  vk.DeviceMemory
	Size            uint64
	MemoryTypeIndex uint32
	Properties      vk.MemoryPropertyFlagBits

	mapCount int
	ptr      unsafe.Pointer
}

// HostVisible returns true if the memory can be mapped
func (d *DeviceMemory) HostVisible() bool {
	return d.Properties&vk.MemoryPropertyHostVisibleBit != 0
}

// IsMapped returns true if the device memory is currently mapped
func (d *DeviceMemory) IsMapped() bool {
	return d.mapCount > 0
}

// Destroy frees this memory
func (d *DeviceMemory) Destroy() {
	if d.mapCount > 0 {
		vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
		d.mapCount = 0
		d.ptr = nil
	}
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}

// Map maps the entire memory object and returns its host pointer.
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	if d.mapCount > 0 {
		d.mapCount++
		return d.ptr, nil
	}
	if !d.HostVisible() {
		return nil, fmt.Errorf("memory type %d is not host visible", d.MemoryTypeIndex)
	}

	var res unsafe.Pointer
	err := vk.Error(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, 0, vk.DeviceSize(d.Size), 0, &res))
	if err != nil {
		return nil, err
	}
	d.mapCount = 1
	d.ptr = res
	return res, nil
}

// Bytes maps the memory and returns size bytes starting at offset. Release with Unmap.
func (d *DeviceMemory) Bytes(offset, size uint64) ([]byte, error) {
	if offset > d.Size || size > d.Size-offset {
		return nil, fmt.Errorf("range [%d, %d) outside memory of %d bytes", offset, offset+size, d.Size)
	}
	ptr, err := d.Map()
	if err != nil {
		return nil, err
	}
	return ToBytes(unsafe.Add(ptr, offset), int(size)), nil
}

// Unmap releases one Map.
func (d *DeviceMemory) Unmap() error {
	if d.mapCount == 0 {
		return fmt.Errorf("memory is not mapped")
	}
	d.mapCount--
	if d.mapCount == 0 {
		d.ptr = nil
		vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
	}
	return nil
}
