package sbt

import (
	"fmt"
	"math/bits"

	"github.com/celer/vkgrt/resource"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Engine builds and maintains shader binding tables for one device.
type Engine struct {
	alloc  *resource.Allocator
	limits HardwareLimits
}

// NewEngine returns an Engine allocating region buffers from alloc.
func NewEngine(alloc *resource.Allocator, limits HardwareLimits) (*Engine, error) {
	if alloc == nil {
		return nil, fmt.Errorf("sbt: nil allocator")
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Engine{alloc: alloc, limits: limits}, nil
}

// Limits returns the hardware limits tables are laid out for.
func (e *Engine) Limits() HardwareLimits {
	return e.limits
}

// Build allocates and fills a new table for d.
//
// Build always returns a table. Kinds without groups and without reserve get no buffer and a zero
// region. A kind whose buffer cannot be allocated is left empty. A group whose handle cannot be
// queried keeps a zeroed record. All such failures are combined into the returned error.
func (e *Engine) Build(p Pipeline, d Descriptor) (*Table, error) {
	t := &Table{}
	var errs error

	for _, k := range Kinds {
		set := d.Groups[k]
		if set.Empty() {
			continue
		}

		rs := e.limits.RecordSize(set.PayloadSize)
		records := uint64(set.Count()) + uint64(set.Reserve)
		size, ok := regionBytes(rs, records)
		if !ok {
			Logger().Error("region size overflows", zap.Stringer("kind", k), zap.Uint64("recordSize", rs), zap.Uint64("records", records))
			errs = multierr.Append(errs, fmt.Errorf("%w: %s needs %d records of %d bytes", ErrRegionTooLarge, k, records, rs))
			continue
		}

		buf, err := e.alloc.CreateBuffer(size, resource.UsageShaderBindingTable,
			resource.AllocationHostAccessSequentialWrite, uint64(e.limits.BaseAlignment), resource.DefaultPool)
		if err != nil {
			Logger().Error("region allocation failed", zap.Stringer("kind", k), zap.Uint64("size", size), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s region: %w", k, err))
			continue
		}

		t.buffers[k] = buf
		t.recordSizes[k] = rs
		t.regions[k] = activeRegion(buf, rs, set.Count())

		errs = multierr.Append(errs, e.writeRecords(p, t, k, set.Indices, 0))
	}

	Logger().Debug("table built",
		zap.Stringer("raygen", t.regions[RayGen]),
		zap.Stringer("miss", t.regions[Miss]),
		zap.Stringer("hit", t.regions[HitGroup]),
		zap.Stringer("callable", t.regions[Callable]))

	return t, errs
}

// regionBytes returns recordSize*records, or false when the product does not fit in 64 bits.
func regionBytes(recordSize, records uint64) (uint64, bool) {
	hi, lo := bits.Mul64(recordSize, records)
	return lo, hi == 0
}

func activeRegion(buf resource.AllocatedResource, recordSize uint64, count uint32) Region {
	if count == 0 {
		return Region{}
	}
	return Region{
		DeviceAddress: buf.DeviceAddress,
		Stride:        recordSize,
		Size:          recordSize * uint64(count),
	}
}

// writeRecords zeroes the buffer of k from zeroFrom to its end and writes the handle of
// indices[i] at i*recordSize. Payload bytes before zeroFrom are left alone.
func (e *Engine) writeRecords(p Pipeline, t *Table, k GroupKind, indices []uint32, zeroFrom uint64) (err error) {
	buf := &t.buffers[k]
	span, err := e.alloc.Map(buf)
	if err != nil {
		Logger().Error("region map failed", zap.Stringer("kind", k), zap.Error(err))
		return fmt.Errorf("%s region: %w", k, err)
	}
	defer func() {
		err = multierr.Append(err, e.alloc.Unmap(buf))
	}()

	if zeroFrom < span.Len() {
		if err := span.Zero(zeroFrom, span.Len()-zeroFrom); err != nil {
			return err
		}
	}

	rs := t.recordSizes[k]
	hs := uint64(e.limits.HandleSize)
	for i, group := range indices {
		off := uint64(i) * rs

		handle, qerr := p.GroupHandles(group, 1)
		if qerr == nil && uint64(len(handle)) < hs {
			qerr = fmt.Errorf("short handle of %d bytes", len(handle))
		}
		if qerr != nil {
			Logger().Warn("group handle query failed",
				zap.Stringer("kind", k), zap.Uint32("group", group), zap.Int("record", i), zap.Error(qerr))
			err = multierr.Append(err, fmt.Errorf("%w: %s group %d: %w", ErrQueryFailure, k, group, qerr))
			if zerr := span.Zero(off, hs); zerr != nil {
				err = multierr.Append(err, zerr)
			}
			continue
		}

		if _, werr := span.WriteAt(handle[:hs], int64(off)); werr != nil {
			err = multierr.Append(err, werr)
		}
	}
	return err
}

// CanFit reports whether every kind of d fits the buffer t already has for it, using the record
// size derived from d.
func (e *Engine) CanFit(t *Table, d Descriptor) bool {
	_, ok := e.fit(t, d)
	return ok
}

func (e *Engine) fit(t *Table, d Descriptor) (GroupKind, bool) {
	for _, k := range Kinds {
		set := d.Groups[k]
		need, ok := regionBytes(e.limits.RecordSize(set.PayloadSize), uint64(set.Count()))
		var have uint64
		if t != nil {
			have = t.buffers[k].Size
		}
		if !ok || need > have {
			return k, false
		}
	}
	return 0, true
}

// Rebuild rewrites t in place for d without reallocating.
//
// If any kind of d does not fit its existing buffer Rebuild returns ErrCapacityExceeded and t is
// not modified. Otherwise every record of every kind is rewritten from freshly queried handles and
// the regions are resized to the new group counts; a kind with no groups becomes an empty region
// but keeps its buffer. When the record size of a kind changes its whole buffer is zeroed, so inline
// payload has to be written again. With an unchanged record size existing payload is kept and only
// the bytes past the new region size are zeroed.
//
// Query failures are returned combined; records of other groups are still written.
func (e *Engine) Rebuild(p Pipeline, t *Table, d Descriptor) error {
	if t == nil {
		return ErrNilTable
	}
	if k, ok := e.fit(t, d); !ok {
		set := d.Groups[k]
		need, _ := regionBytes(e.limits.RecordSize(set.PayloadSize), uint64(set.Count()))
		Logger().Warn("rebuild exceeds region capacity",
			zap.Stringer("kind", k), zap.Uint64("need", need), zap.Uint64("have", t.buffers[k].Size))
		return fmt.Errorf("%w: %s needs %d bytes, buffer holds %d", ErrCapacityExceeded, k, need, t.buffers[k].Size)
	}

	var errs error
	for _, k := range Kinds {
		set := d.Groups[k]
		buf := t.buffers[k]
		if !buf.IsValid() {
			// fit guarantees there is nothing to write.
			t.regions[k] = Region{}
			continue
		}

		rs := e.limits.RecordSize(set.PayloadSize)
		zeroFrom := rs * uint64(set.Count())
		if rs != t.recordSizes[k] {
			Logger().Debug("record size changed",
				zap.Stringer("kind", k), zap.Uint64("from", t.recordSizes[k]), zap.Uint64("to", rs))
			zeroFrom = 0
		}

		t.recordSizes[k] = rs
		t.regions[k] = activeRegion(buf, rs, set.Count())

		errs = multierr.Append(errs, e.writeRecords(p, t, k, set.Indices, zeroFrom))
	}
	return errs
}

// CopyInto copies the records of every kind active in both src and dst to the start of dst's
// buffer. All kinds are checked first; if any source region is larger than the destination
// buffer nothing is copied and ErrSizeMismatch is returned. Regions of dst are not changed.
func (e *Engine) CopyInto(src, dst *Table) error {
	if src == nil || dst == nil {
		return ErrNilTable
	}
	if src == dst {
		return nil
	}

	var errs error
	for _, k := range Kinds {
		if src.regions[k].Empty() || dst.regions[k].Empty() {
			continue
		}
		if src.regions[k].Size > dst.buffers[k].Size {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s region of %d bytes, destination holds %d",
				ErrSizeMismatch, k, src.regions[k].Size, dst.buffers[k].Size))
		}
	}
	if errs != nil {
		Logger().Error("copy rejected", zap.Error(errs))
		return errs
	}

	for _, k := range Kinds {
		if src.regions[k].Empty() || dst.regions[k].Empty() {
			continue
		}
		errs = multierr.Append(errs, e.copyRegion(src, dst, k))
	}
	return errs
}

func (e *Engine) copyRegion(src, dst *Table, k GroupKind) (err error) {
	from, err := e.alloc.Map(&src.buffers[k])
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, e.alloc.Unmap(&src.buffers[k])) }()

	to, err := e.alloc.Map(&dst.buffers[k])
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, e.alloc.Unmap(&dst.buffers[k])) }()

	b, err := from.Slice(0, src.regions[k].Size)
	if err != nil {
		return err
	}
	_, err = to.WriteAt(b, 0)
	return err
}

// Destroy frees the buffers of t and resets it to an empty table. Destroying a table twice is safe.
func (e *Engine) Destroy(t *Table) error {
	if t == nil {
		return nil
	}
	var errs error
	for _, k := range Kinds {
		if err := e.alloc.DestroyBuffer(&t.buffers[k]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s region: %w", k, err))
		}
		t.regions[k] = Region{}
		t.recordSizes[k] = 0
	}
	return errs
}

func (e *Engine) record(t *Table, k GroupKind, group uint32) (uint64, error) {
	if t == nil {
		return 0, ErrNilTable
	}
	if err := checkKind(k); err != nil {
		return 0, err
	}
	if uint64(group) >= t.regions[k].Count() {
		return 0, fmt.Errorf("%w: %s record %d of %d", ErrGroupIndexOutOfRange, k, group, t.regions[k].Count())
	}
	return uint64(group) * t.recordSizes[k], nil
}

// WriteRecordData writes inline payload for record group of kind k, right after its handle.
func (e *Engine) WriteRecordData(t *Table, k GroupKind, group uint32, data []byte) error {
	off, err := e.record(t, k, group)
	if err != nil {
		return err
	}
	room := t.recordSizes[k] - uint64(e.limits.HandleSize)
	if uint64(len(data)) > room {
		return fmt.Errorf("%w: %d bytes, %s record has room for %d", ErrPayloadTooLarge, len(data), k, room)
	}
	return e.alloc.UpdateBuffer(&t.buffers[k], data, off+uint64(e.limits.HandleSize))
}

// ReadRecord returns a copy of record group of kind k, handle included.
func (e *Engine) ReadRecord(t *Table, k GroupKind, group uint32) (rec []byte, err error) {
	off, err := e.record(t, k, group)
	if err != nil {
		return nil, err
	}
	span, err := e.alloc.Map(&t.buffers[k])
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, e.alloc.Unmap(&t.buffers[k])) }()

	rec = make([]byte, t.recordSizes[k])
	if _, err := span.ReadAt(rec, int64(off)); err != nil {
		return nil, err
	}
	return rec, nil
}
