package vkg

import (
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// CommandPool hands out primary command buffers for one queue family.
type CommandPool struct {
	Device        *Device
	QueueFamily   *QueueFamily
	VKCommandPool vk.CommandPool
}

// CreateCommandPool creates a transient, resettable pool for queue family q.
func (d *Device) CreateCommandPool(q *QueueFamily) (*CommandPool, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit),
		QueueFamilyIndex: uint32(q.Index),
	}

	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.VKDevice, &info, nil, &pool)); err != nil {
		Logger().Error("vkCreateCommandPool failed", zap.Int("queueFamily", q.Index), zap.Error(err))
		return nil, err
	}
	return &CommandPool{Device: d, QueueFamily: q, VKCommandPool: pool}, nil
}

// AllocateBuffer allocates one primary command buffer.
func (c *CommandPool) AllocateBuffer() (*CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.VKCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	buffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(c.Device.VKDevice, &info, buffers)); err != nil {
		return nil, err
	}
	return &CommandBuffer{VKCommandBuffer: buffers[0]}, nil
}

// FreeBuffer returns b to the pool.
func (c *CommandPool) FreeBuffer(b *CommandBuffer) {
	vk.FreeCommandBuffers(c.Device.VKDevice, c.VKCommandPool, 1, []vk.CommandBuffer{b.VKCommandBuffer})
}

func (c *CommandPool) Destroy() {
	vk.DestroyCommandPool(c.Device.VKDevice, c.VKCommandPool, nil)
}
