package vkg

import (
	"fmt"
	"time"

	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// OneTimeSubmitTimeout bounds how long SubmitOneTime waits for the GPU.
var OneTimeSubmitTimeout = 10 * time.Second

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.VKQueue))
}

func submitInfo(buffers []*CommandBuffer) vk.SubmitInfo {
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}
	return vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(buffers)),
		PCommandBuffers:    b,
	}
}

func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	err := vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo(buffers)}, nil))
	if err != nil {
		return err
	}
	return q.WaitIdle()
}

func (q *Queue) SubmitWithFence(fence *Fence, buffers ...*CommandBuffer) error {
	return vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo(buffers)}, fence.VKFence))
}

// SubmitOneTime allocates a command buffer from pool, lets record fill it, submits it and waits
// for it to complete. It is meant for setup work such as uploading SBT or instance buffers.
func (q *Queue) SubmitOneTime(pool *CommandPool, record func(cb *CommandBuffer) error) (err error) {
	cb, err := pool.AllocateBuffer()
	if err != nil {
		return err
	}
	defer pool.FreeBuffer(cb)

	if err := cb.BeginOneTime(); err != nil {
		return err
	}
	if err := record(cb); err != nil {
		return multierr.Append(fmt.Errorf("recording one time commands: %w", err), cb.End())
	}
	if err := cb.End(); err != nil {
		return err
	}

	fence, err := q.Device.CreateFence()
	if err != nil {
		return err
	}
	defer fence.Destroy()

	if err := q.SubmitWithFence(fence, cb); err != nil {
		return err
	}
	if err := fence.Wait(OneTimeSubmitTimeout); err != nil {
		Logger().Error("one time submit did not complete", zap.Duration("timeout", OneTimeSubmitTimeout), zap.Error(err))
		return err
	}
	return nil
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
