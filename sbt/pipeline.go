package sbt

import "fmt"

// Pipeline is the source of opaque shader group handles, typically a built ray tracing pipeline.
// GroupHandles returns HandleSize*groupCount bytes for groups [firstGroup, firstGroup+groupCount).
type Pipeline interface {
	GroupHandles(firstGroup, groupCount uint32) ([]byte, error)
}

// PipelineFunc adapts a function to the Pipeline interface.
type PipelineFunc func(firstGroup, groupCount uint32) ([]byte, error)

func (f PipelineFunc) GroupHandles(firstGroup, groupCount uint32) ([]byte, error) {
	return f(firstGroup, groupCount)
}

// HandleCache serves group handles from one contiguous blob, so building a table costs a single
// driver query no matter how many records it writes.
type HandleCache struct {
	handleSize uint32
	data       []byte
}

var _ Pipeline = (*HandleCache)(nil)

// NewHandleCache wraps data, which holds consecutive handles of handleSize bytes starting at
// group 0.
func NewHandleCache(handleSize uint32, data []byte) (*HandleCache, error) {
	if handleSize == 0 {
		return nil, fmt.Errorf("%w: zero handle size", ErrInvalidLimits)
	}
	if len(data)%int(handleSize) != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d byte handles", ErrQueryFailure, len(data), handleSize)
	}
	return &HandleCache{handleSize: handleSize, data: data}, nil
}

// CacheHandles queries the handles of the first groupCount groups of p in one call.
func CacheHandles(p Pipeline, handleSize, groupCount uint32) (*HandleCache, error) {
	data, err := p.GroupHandles(0, groupCount)
	if err != nil {
		return nil, fmt.Errorf("%w: groups [0, %d): %w", ErrQueryFailure, groupCount, err)
	}
	if want := int(handleSize) * int(groupCount); len(data) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrQueryFailure, len(data), want)
	}
	return NewHandleCache(handleSize, data)
}

// Len returns the number of cached handles.
func (c *HandleCache) Len() uint32 {
	return uint32(len(c.data) / int(c.handleSize))
}

// GroupHandles implements Pipeline. The returned bytes are a copy.
func (c *HandleCache) GroupHandles(firstGroup, groupCount uint32) ([]byte, error) {
	if uint64(firstGroup)+uint64(groupCount) > uint64(c.Len()) {
		return nil, fmt.Errorf("%w: groups [%d, %d) outside cache of %d", ErrQueryFailure, firstGroup, uint64(firstGroup)+uint64(groupCount), c.Len())
	}
	s := uint64(firstGroup) * uint64(c.handleSize)
	e := s + uint64(groupCount)*uint64(c.handleSize)
	out := make([]byte, e-s)
	copy(out, c.data[s:e])
	return out, nil
}
