package sbt

import (
	"errors"
	"testing"

	"github.com/celer/vkgrt/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var limits32 = HardwareLimits{HandleSize: 32, HandleAlignment: 32, BaseAlignment: 64}

type fakePipeline struct {
	handleSize uint32
	salt       byte
	fail       func(group uint32) bool
	queries    int
}

func handleOf(group, handleSize uint32, salt byte) []byte {
	b := make([]byte, handleSize)
	for i := range b {
		b[i] = byte(group)*16 + byte(i) + salt + 1
	}
	return b
}

func (p *fakePipeline) GroupHandles(first, count uint32) ([]byte, error) {
	p.queries++
	out := make([]byte, 0, count*p.handleSize)
	for g := first; g < first+count; g++ {
		if p.fail != nil && p.fail(g) {
			return nil, errors.New("device lost")
		}
		out = append(out, handleOf(g, p.handleSize, p.salt)...)
	}
	return out, nil
}

func newTestEngine(t *testing.T, poolSize uint64) (*Engine, *resource.HostMemory, *resource.Allocator) {
	t.Helper()
	h := resource.NewHostMemory(poolSize)
	alloc := resource.NewAllocator(h, resource.WithMetrics(resource.NopMetrics()))
	e, err := NewEngine(alloc, limits32)
	require.NoError(t, err)
	return e, h, alloc
}

func descriptor(sets map[GroupKind]GroupSet) Descriptor {
	var d Descriptor
	for k, s := range sets {
		d.Groups[k] = s
	}
	return d
}

func bufferBytes(t *testing.T, alloc *resource.Allocator, buf *resource.AllocatedResource) []byte {
	t.Helper()
	span, err := alloc.Map(buf)
	require.NoError(t, err)
	defer func() { require.NoError(t, alloc.Unmap(buf)) }()
	return append([]byte(nil), span.Bytes()...)
}

func TestNewEngineRejectsInvalidLimits(t *testing.T) {
	alloc := resource.NewAllocator(resource.NewHostMemory(64), resource.WithMetrics(resource.NopMetrics()))

	_, err := NewEngine(alloc, HardwareLimits{HandleSize: 32, HandleAlignment: 24, BaseAlignment: 64})
	require.ErrorIs(t, err, ErrInvalidLimits)

	_, err = NewEngine(nil, limits32)
	require.Error(t, err)
}

func TestBuildTwoRayGenOneMiss(t *testing.T) {
	e, h, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0, 1}},
		Miss:   {Indices: []uint32{2}},
	}))
	require.NoError(t, err)

	regions := tbl.Regions()
	require.Equal(t, uint64(32), regions[RayGen].Stride)
	require.Equal(t, uint64(64), regions[RayGen].Size)
	require.Equal(t, uint64(32), regions[Miss].Stride)
	require.Equal(t, uint64(32), regions[Miss].Size)
	require.Equal(t, Region{}, regions[HitGroup])
	require.Equal(t, Region{}, regions[Callable])

	for _, k := range []GroupKind{RayGen, Miss} {
		rs, err := tbl.RecordSize(k)
		require.NoError(t, err)
		require.Equal(t, uint64(32), rs)
		require.NotZero(t, regions[k].DeviceAddress)
		require.Zero(t, regions[k].DeviceAddress%64)
	}

	for _, k := range []GroupKind{HitGroup, Callable} {
		buf, err := tbl.Buffer(k)
		require.NoError(t, err)
		require.False(t, buf.IsValid())
	}
	require.Equal(t, 2, h.Live(), "empty kinds allocate nothing")
}

func TestBuildRoundTrip(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	d := descriptor(map[GroupKind]GroupSet{
		RayGen:   {Indices: []uint32{4}},
		Miss:     {Indices: []uint32{1, 0}},
		HitGroup: {Indices: []uint32{2, 3, 5}, PayloadSize: 8},
		Callable: {Indices: []uint32{6}, PayloadSize: 40, Reserve: 1},
	})
	tbl, err := e.Build(p, d)
	require.NoError(t, err)

	expectedRecordSizes := map[GroupKind]uint64{RayGen: 32, Miss: 32, HitGroup: 64, Callable: 96}
	for _, k := range Kinds {
		rs, err := tbl.RecordSize(k)
		require.NoError(t, err)
		require.Equal(t, expectedRecordSizes[k], rs, k.String())

		for i, group := range d.Groups[k].Indices {
			rec, err := e.ReadRecord(tbl, k, uint32(i))
			require.NoError(t, err)
			require.Equal(t, handleOf(group, 32, 0), rec[:32], "%s record %d", k, i)
			require.Equal(t, make([]byte, rs-32), rec[32:], "payload is zero filled")
		}
	}

	capacity, err := tbl.Capacity(Callable)
	require.NoError(t, err)
	require.Equal(t, uint64(2), capacity)
}

func TestBuildEmptyDescriptor(t *testing.T) {
	e, h, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, Descriptor{})
	require.NoError(t, err)
	require.Equal(t, [NumGroupKinds]Region{}, tbl.Regions())
	require.Zero(t, h.Live())
	require.Zero(t, p.queries)
}

func TestBuildReserveOnlyKind(t *testing.T) {
	e, h, alloc := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		Miss: {Reserve: 2},
	}))
	require.NoError(t, err)
	require.Equal(t, 1, h.Live())

	region, err := tbl.Region(Miss)
	require.NoError(t, err)
	require.True(t, region.Empty())

	capacity, err := tbl.Capacity(Miss)
	require.NoError(t, err)
	require.Equal(t, uint64(2), capacity)
	require.Equal(t, make([]byte, 64), bufferBytes(t, alloc, &tbl.buffers[Miss]))
}

func TestBuildWithFailingPipeline(t *testing.T) {
	e, _, alloc := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32, fail: func(uint32) bool { return true }}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0, 1}},
		Miss:   {Indices: []uint32{2}},
	}))
	require.ErrorIs(t, err, ErrQueryFailure)
	require.Len(t, multierr.Errors(err), 3)
	require.NotNil(t, tbl)

	regions := tbl.Regions()
	require.Equal(t, uint64(64), regions[RayGen].Size)
	require.Equal(t, uint64(32), regions[Miss].Size)
	require.NotZero(t, regions[RayGen].DeviceAddress)
	require.NotZero(t, regions[Miss].DeviceAddress)

	require.Equal(t, make([]byte, 64), bufferBytes(t, alloc, &tbl.buffers[RayGen]))
	require.Equal(t, make([]byte, 32), bufferBytes(t, alloc, &tbl.buffers[Miss]))
}

func TestBuildAllocationFailureLeavesKindEmpty(t *testing.T) {
	e, h, _ := newTestEngine(t, 64)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0, 1}},
		Miss:   {Indices: []uint32{2}},
	}))
	require.ErrorIs(t, err, resource.ErrAllocation)
	require.NotErrorIs(t, err, ErrQueryFailure)

	regions := tbl.Regions()
	require.Equal(t, uint64(64), regions[RayGen].Size)
	require.Equal(t, Region{}, regions[Miss])

	buf, err := tbl.Buffer(Miss)
	require.NoError(t, err)
	require.False(t, buf.IsValid())
	require.Equal(t, 1, h.Live())
}

func TestBuildFromHandleCache(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	cache, err := CacheHandles(p, 32, 8)
	require.NoError(t, err)

	d := descriptor(map[GroupKind]GroupSet{
		RayGen:   {Indices: []uint32{0}},
		Miss:     {Indices: []uint32{1, 2}},
		HitGroup: {Indices: []uint32{7, 3}},
	})
	tbl, err := e.Build(cache, d)
	require.NoError(t, err)
	require.Equal(t, 1, p.queries)

	rec, err := e.ReadRecord(tbl, HitGroup, 0)
	require.NoError(t, err)
	require.Equal(t, handleOf(7, 32, 0), rec[:32])
}

func TestCanFitMonotonic(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen:   {Indices: []uint32{0, 1, 2}, PayloadSize: 16, Reserve: 1},
		HitGroup: {Indices: []uint32{3}, Reserve: 3},
	}))
	require.NoError(t, err)

	payloads := []uint32{0, 8, 16, 32, 48, 64, 100}
	fits := func(count int, payload uint32) bool {
		indices := make([]uint32, count)
		return e.CanFit(tbl, descriptor(map[GroupKind]GroupSet{
			RayGen:   {Indices: indices, PayloadSize: payload},
			HitGroup: {Indices: []uint32{3}},
		}))
	}

	for c1 := 0; c1 <= 6; c1++ {
		for _, p1 := range payloads {
			if !fits(c1, p1) {
				continue
			}
			for c2 := 0; c2 <= c1; c2++ {
				for _, p2 := range payloads {
					if p2 <= p1 {
						assert.True(t, fits(c2, p2), "fits(%d,%d) but not fits(%d,%d)", c1, p1, c2, p2)
					}
				}
			}
		}
	}

	require.True(t, fits(4, 16))
	require.False(t, fits(5, 16))
	require.False(t, fits(3, 40))
	require.True(t, fits(0, 100))

	require.False(t, e.CanFit(tbl, descriptor(map[GroupKind]GroupSet{
		Miss: {Indices: []uint32{0}},
	})), "kinds without a buffer fit nothing")
}

func TestRebuildCapacityExceededLeavesTableUntouched(t *testing.T) {
	e, _, alloc := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0, 1}},
		Miss:   {Indices: []uint32{2}, PayloadSize: 16, Reserve: 1},
	}))
	require.NoError(t, err)
	require.NoError(t, e.WriteRecordData(tbl, Miss, 0, []byte{0xaa, 0xbb}))

	regions := tbl.Regions()
	recordSizes := tbl.recordSizes
	raygen := bufferBytes(t, alloc, &tbl.buffers[RayGen])
	miss := bufferBytes(t, alloc, &tbl.buffers[Miss])
	queries := p.queries

	err = e.Rebuild(p, tbl, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{2, 1, 0}},
		Miss:   {Indices: []uint32{5}, PayloadSize: 16},
	}))
	require.ErrorIs(t, err, ErrCapacityExceeded)

	require.Equal(t, regions, tbl.Regions())
	require.Equal(t, recordSizes, tbl.recordSizes)
	require.Equal(t, raygen, bufferBytes(t, alloc, &tbl.buffers[RayGen]))
	require.Equal(t, miss, bufferBytes(t, alloc, &tbl.buffers[Miss]))
	require.Equal(t, queries, p.queries, "no handle is queried")
}

func TestRebuildGrowsIntoReserve(t *testing.T) {
	e, _, alloc := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0}, Reserve: 2},
	}))
	require.NoError(t, err)
	addr := tbl.Regions()[RayGen].DeviceAddress

	p.salt = 3
	require.NoError(t, e.Rebuild(p, tbl, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{3, 4, 5}},
	})))

	region := tbl.Regions()[RayGen]
	require.Equal(t, Region{DeviceAddress: addr, Stride: 32, Size: 96}, region)
	for i, group := range []uint32{3, 4, 5} {
		rec, err := e.ReadRecord(tbl, RayGen, uint32(i))
		require.NoError(t, err)
		require.Equal(t, handleOf(group, 32, 3), rec, "every record is re-queried")
	}

	require.NoError(t, e.Rebuild(p, tbl, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{7}},
	})))
	require.Equal(t, Region{DeviceAddress: addr, Stride: 32, Size: 32}, tbl.Regions()[RayGen])

	b := bufferBytes(t, alloc, &tbl.buffers[RayGen])
	require.Equal(t, handleOf(7, 32, 3), b[:32])
	require.Equal(t, make([]byte, 64), b[32:], "records past the region are cleared")
}

func TestRebuildKeepsPayloadWithSameRecordSize(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		HitGroup: {Indices: []uint32{0, 1}, PayloadSize: 8},
	}))
	require.NoError(t, err)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, e.WriteRecordData(tbl, HitGroup, 1, payload))

	require.NoError(t, e.Rebuild(p, tbl, descriptor(map[GroupKind]GroupSet{
		HitGroup: {Indices: []uint32{1, 0}, PayloadSize: 8},
	})))

	rec, err := e.ReadRecord(tbl, HitGroup, 1)
	require.NoError(t, err)
	require.Len(t, rec, 64)
	require.Equal(t, handleOf(0, 32, 0), rec[:32])
	require.Equal(t, payload, rec[32:40])
}

func TestRebuildRecordSizeChangeClearsBuffer(t *testing.T) {
	e, _, alloc := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		HitGroup: {Indices: []uint32{0, 1, 2}, Reserve: 1},
	}))
	require.NoError(t, err)
	require.Equal(t, uint64(128), tbl.buffers[HitGroup].Size)

	require.NoError(t, e.Rebuild(p, tbl, descriptor(map[GroupKind]GroupSet{
		HitGroup: {Indices: []uint32{2, 0}, PayloadSize: 16},
	})))

	rs, err := tbl.RecordSize(HitGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(64), rs)
	require.Equal(t, Region{DeviceAddress: tbl.buffers[HitGroup].DeviceAddress, Stride: 64, Size: 128}, tbl.Regions()[HitGroup])

	b := bufferBytes(t, alloc, &tbl.buffers[HitGroup])
	require.Equal(t, handleOf(2, 32, 0), b[0:32])
	require.Equal(t, make([]byte, 32), b[32:64], "stale handle of the old layout is gone")
	require.Equal(t, handleOf(0, 32, 0), b[64:96])
	require.Equal(t, make([]byte, 32), b[96:128])

	capacity, err := tbl.Capacity(HitGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(2), capacity)
}

func TestRebuildWithoutGroupsEmptiesRegion(t *testing.T) {
	e, h, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0}},
		Miss:   {Indices: []uint32{1}},
	}))
	require.NoError(t, err)

	require.NoError(t, e.Rebuild(p, tbl, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0}},
	})))
	require.Equal(t, Region{}, tbl.Regions()[Miss])
	require.True(t, tbl.buffers[Miss].IsValid(), "the buffer is kept for later growth")
	require.Equal(t, 2, h.Live())

	require.NoError(t, e.Rebuild(p, tbl, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0}},
		Miss:   {Indices: []uint32{4}},
	})))
	rec, err := e.ReadRecord(tbl, Miss, 0)
	require.NoError(t, err)
	require.Equal(t, handleOf(4, 32, 0), rec)
}

func TestRebuildContinuesAfterQueryFailure(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	d := descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0, 1, 2}},
		Miss:   {Indices: []uint32{3}},
	})
	tbl, err := e.Build(p, d)
	require.NoError(t, err)

	p.salt = 9
	p.fail = func(g uint32) bool { return g == 1 }
	err = e.Rebuild(p, tbl, d)
	require.ErrorIs(t, err, ErrQueryFailure)
	require.Len(t, multierr.Errors(err), 1)

	rec, err := e.ReadRecord(tbl, RayGen, 0)
	require.NoError(t, err)
	require.Equal(t, handleOf(0, 32, 9), rec)

	rec, err = e.ReadRecord(tbl, RayGen, 1)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 32), rec, "failed record holds no stale handle")

	rec, err = e.ReadRecord(tbl, RayGen, 2)
	require.NoError(t, err)
	require.Equal(t, handleOf(2, 32, 9), rec)

	rec, err = e.ReadRecord(tbl, Miss, 0)
	require.NoError(t, err)
	require.Equal(t, handleOf(3, 32, 9), rec)
}

func TestRebuildNilTable(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)
	require.ErrorIs(t, e.Rebuild(&fakePipeline{handleSize: 32}, nil, Descriptor{}), ErrNilTable)
}

func TestCopyInto(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)

	d := descriptor(map[GroupKind]GroupSet{
		RayGen:   {Indices: []uint32{0}},
		Miss:     {Indices: []uint32{1, 2}},
		HitGroup: {Indices: []uint32{3, 4}, PayloadSize: 4},
	})
	a, err := e.Build(&fakePipeline{handleSize: 32, salt: 1}, d)
	require.NoError(t, err)
	b, err := e.Build(&fakePipeline{handleSize: 32, salt: 2}, d)
	require.NoError(t, err)
	require.NoError(t, e.WriteRecordData(a, HitGroup, 1, []byte{4, 3, 2, 1}))

	require.NoError(t, e.CopyInto(a, b))

	for _, k := range Kinds {
		for i := uint64(0); i < a.Regions()[k].Count(); i++ {
			ra, err := e.ReadRecord(a, k, uint32(i))
			require.NoError(t, err)
			rb, err := e.ReadRecord(b, k, uint32(i))
			require.NoError(t, err)
			require.Equal(t, ra, rb, "%s record %d", k, i)
		}
	}
	require.NoError(t, e.CopyInto(a, a))
}

func TestCopyIntoSizeMismatchCopiesNothing(t *testing.T) {
	e, _, alloc := newTestEngine(t, 1<<16)

	a, err := e.Build(&fakePipeline{handleSize: 32, salt: 1}, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0}},
		Miss:   {Indices: []uint32{1, 2}},
	}))
	require.NoError(t, err)
	b, err := e.Build(&fakePipeline{handleSize: 32, salt: 2}, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0}},
		Miss:   {Indices: []uint32{1}},
	}))
	require.NoError(t, err)

	before := bufferBytes(t, alloc, &b.buffers[RayGen])

	err = e.CopyInto(a, b)
	require.ErrorIs(t, err, ErrSizeMismatch)
	require.Equal(t, before, bufferBytes(t, alloc, &b.buffers[RayGen]), "valid kinds are not copied either")

	require.NoError(t, e.CopyInto(b, a))
	rec, err := e.ReadRecord(a, Miss, 0)
	require.NoError(t, err)
	require.Equal(t, handleOf(1, 32, 2), rec)
	rec, err = e.ReadRecord(a, Miss, 1)
	require.NoError(t, err)
	require.Equal(t, handleOf(2, 32, 1), rec, "bytes past the source region are kept")

	require.ErrorIs(t, e.CopyInto(nil, a), ErrNilTable)
}

func TestDestroy(t *testing.T) {
	e, h, _ := newTestEngine(t, 1<<16)

	tbl, err := e.Build(&fakePipeline{handleSize: 32}, descriptor(map[GroupKind]GroupSet{
		RayGen:   {Indices: []uint32{0}},
		Callable: {Reserve: 4},
	}))
	require.NoError(t, err)
	require.Equal(t, 2, h.Live())

	require.NoError(t, e.Destroy(tbl))
	require.Zero(t, h.Live())
	require.Equal(t, [NumGroupKinds]Region{}, tbl.Regions())
	for _, k := range Kinds {
		rs, err := tbl.RecordSize(k)
		require.NoError(t, err)
		require.Zero(t, rs)
	}

	require.NoError(t, e.Destroy(tbl))
	require.NoError(t, e.Destroy(nil))
}

func TestWriteRecordData(t *testing.T) {
	e, _, _ := newTestEngine(t, 1<<16)

	tbl, err := e.Build(&fakePipeline{handleSize: 32}, descriptor(map[GroupKind]GroupSet{
		HitGroup: {Indices: []uint32{0, 1}, PayloadSize: 24, Reserve: 1},
	}))
	require.NoError(t, err)

	require.ErrorIs(t, e.WriteRecordData(tbl, GroupKind(9), 0, []byte{1}), ErrInvalidGroupKind)
	require.ErrorIs(t, e.WriteRecordData(tbl, Miss, 0, []byte{1}), ErrGroupIndexOutOfRange)
	require.ErrorIs(t, e.WriteRecordData(tbl, HitGroup, 2, []byte{1}), ErrGroupIndexOutOfRange, "reserve records are not addressable")
	require.ErrorIs(t, e.WriteRecordData(tbl, HitGroup, 0, make([]byte, 33)), ErrPayloadTooLarge)

	payload := make([]byte, 32)
	for i := range payload {
		payload[i] = 0xf0 | byte(i&0xf)
	}
	require.NoError(t, e.WriteRecordData(tbl, HitGroup, 0, payload))

	rec, err := e.ReadRecord(tbl, HitGroup, 0)
	require.NoError(t, err)
	require.Equal(t, handleOf(0, 32, 0), rec[:32])
	require.Equal(t, payload, rec[32:])

	_, err = e.ReadRecord(tbl, GroupKind(4), 0)
	require.ErrorIs(t, err, ErrInvalidGroupKind)
	_, err = e.ReadRecord(nil, RayGen, 0)
	require.ErrorIs(t, err, ErrNilTable)
}

func TestBuildRejectsOverflowingRegion(t *testing.T) {
	e, h, _ := newTestEngine(t, 1<<16)
	p := &fakePipeline{handleSize: 32}

	// 2^32 byte records times 2^32+1 records does not fit in 64 bits.
	tbl, err := e.Build(p, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0, 1}, PayloadSize: 1<<32 - 32, Reserve: 1<<32 - 1},
		Miss:   {Indices: []uint32{2}},
	}))
	require.ErrorIs(t, err, ErrRegionTooLarge)
	require.NotNil(t, tbl)

	regions := tbl.Regions()
	require.Equal(t, Region{}, regions[RayGen])
	buf, err := tbl.Buffer(RayGen)
	require.NoError(t, err)
	require.False(t, buf.IsValid())

	require.Equal(t, uint64(32), regions[Miss].Size)
	require.Equal(t, 1, h.Live(), "only the miss region is allocated")
	require.Equal(t, 1, p.queries)
}

func TestRegionBytes(t *testing.T) {
	n, ok := regionBytes(64, 3)
	require.True(t, ok)
	require.Equal(t, uint64(192), n)

	_, ok = regionBytes(1<<32, 1<<32)
	require.False(t, ok)

	n, ok = regionBytes(1<<32, 1<<31)
	require.True(t, ok)
	require.Equal(t, uint64(1<<63), n)
}

func TestBuildZeroesRecycledMemory(t *testing.T) {
	e, _, alloc := newTestEngine(t, 1<<16)

	dirty, err := alloc.CreateBuffer(256, resource.UsageStorageBuffer, resource.AllocationHostAccessRandom, 64, resource.DefaultPool)
	require.NoError(t, err)
	garbage := make([]byte, 256)
	for i := range garbage {
		garbage[i] = 0xff
	}
	require.NoError(t, alloc.UpdateBuffer(&dirty, garbage, 0))
	dirtyAddress := dirty.DeviceAddress
	require.NoError(t, alloc.DestroyBuffer(&dirty))

	tbl, err := e.Build(&fakePipeline{handleSize: 32}, descriptor(map[GroupKind]GroupSet{
		RayGen: {Indices: []uint32{0}, PayloadSize: 16, Reserve: 1},
	}))
	require.NoError(t, err)

	buf, err := tbl.Buffer(RayGen)
	require.NoError(t, err)
	require.Equal(t, dirtyAddress, buf.DeviceAddress, "table reuses the freed memory")

	want := make([]byte, 128)
	copy(want, handleOf(0, 32, 0))
	require.Equal(t, want, bufferBytes(t, alloc, &tbl.buffers[RayGen]))
}
