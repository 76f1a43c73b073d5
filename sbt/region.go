package sbt

import "fmt"

// Region is the strided device address range of one kind, as passed to a trace rays dispatch.
// The zero Region is the empty sentinel.
type Region struct {
	DeviceAddress uint64
	Stride        uint64
	Size          uint64
}

// Empty reports whether r holds no records.
func (r Region) Empty() bool {
	return r.Size == 0
}

// Count returns the number of records in r.
func (r Region) Count() uint64 {
	if r.Stride == 0 {
		return 0
	}
	return r.Size / r.Stride
}

func (r Region) String() string {
	return fmt.Sprintf("{addr=0x%x stride=%d size=%d}", r.DeviceAddress, r.Stride, r.Size)
}
