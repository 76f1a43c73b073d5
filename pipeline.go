package vkg

import (
	"fmt"

	"github.com/celer/vkgrt/sbt"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// GroupHandlesFunc fills data with the handles of groupCount shader groups starting at
// firstGroup, normally a cgo wrapper around vkGetRayTracingShaderGroupHandlesKHR.
type GroupHandlesFunc func(device vk.Device, pipeline vk.Pipeline, firstGroup, groupCount uint32, data []byte) vk.Result

// RayTracingPipeline is a built ray tracing pipeline seen as the source of shader group handles
// for a shader binding table.
type RayTracingPipeline struct {
	Device          *Device
	VKPipeline      vk.Pipeline
	HandleSize      uint32
	GetGroupHandles GroupHandlesFunc
}

var _ sbt.Pipeline = (*RayTracingPipeline)(nil)

// GroupHandles implements sbt.Pipeline.
func (p *RayTracingPipeline) GroupHandles(firstGroup, groupCount uint32) ([]byte, error) {
	if p.GetGroupHandles == nil {
		return nil, fmt.Errorf("pipeline has no group handle query")
	}

	data := make([]byte, int(p.HandleSize)*int(groupCount))
	err := vk.Error(p.GetGroupHandles(p.Device.VKDevice, p.VKPipeline, firstGroup, groupCount, data))
	if err != nil {
		Logger().Warn("vkGetRayTracingShaderGroupHandlesKHR failed",
			zap.Uint32("first", firstGroup), zap.Uint32("count", groupCount), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Destroy destroys the pipeline.
func (p *RayTracingPipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}
