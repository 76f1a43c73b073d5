package vkg

import (
	"fmt"

	"github.com/celer/vkgrt/resource"
)

type bufferTransfer struct {
	alloc *DeviceAllocator
	cb    *CommandBuffer
}

// Transfer returns a resource.TransferContext that records buffer copies into cb. Raw handles
// are resolved through a. No barriers are recorded.
func (a *DeviceAllocator) Transfer(cb *CommandBuffer) resource.TransferContext {
	return &bufferTransfer{alloc: a, cb: cb}
}

func (t *bufferTransfer) CmdCopyBuffer(src, dst resource.Handle, size uint64) error {
	s, ok := t.alloc.Buffer(src)
	if !ok {
		return &resource.Error{Op: "CmdCopyBuffer", Kind: resource.KindUnknownHandle, Detail: fmt.Sprintf("source %d", src)}
	}
	d, ok := t.alloc.Buffer(dst)
	if !ok {
		return &resource.Error{Op: "CmdCopyBuffer", Kind: resource.KindUnknownHandle, Detail: fmt.Sprintf("destination %d", dst)}
	}
	t.cb.CmdCopyBuffer(s, d, 0, 0, size)
	return nil
}
