package resource

import (
	"io"
)

// Span is a bounds-checked view of mapped memory. Writes never extend past the mapping; an
// out-of-range access fails with KindOutOfRange and leaves the memory untouched.
type Span struct {
	buf    []byte
	cursor int64
}

var (
	_ io.WriterAt = (*Span)(nil)
	_ io.ReaderAt = (*Span)(nil)
	_ io.Writer   = (*Span)(nil)
	_ io.Seeker   = (*Span)(nil)
)

// NewSpan wraps b. The span never grows beyond len(b).
func NewSpan(b []byte) *Span {
	return &Span{buf: b[:len(b):len(b)]}
}

// Len returns the size of the span in bytes.
func (s *Span) Len() uint64 {
	return uint64(len(s.buf))
}

// Bytes exposes the underlying memory.
func (s *Span) Bytes() []byte {
	return s.buf
}

func (s *Span) check(op string, off int64, n int) error {
	if off < 0 || n < 0 || uint64(off)+uint64(n) > uint64(len(s.buf)) {
		return newError(op, KindOutOfRange, "offset %d length %d exceeds span of %d bytes", off, n, len(s.buf))
	}
	return nil
}

// WriteAt copies p to offset off. It writes all of p or nothing.
func (s *Span) WriteAt(p []byte, off int64) (int, error) {
	if err := s.check("WriteAt", off, len(p)); err != nil {
		return 0, err
	}
	return copy(s.buf[off:], p), nil
}

// ReadAt fills p from offset off. It reads all of p or nothing.
func (s *Span) ReadAt(p []byte, off int64) (int, error) {
	if err := s.check("ReadAt", off, len(p)); err != nil {
		return 0, err
	}
	return copy(p, s.buf[off:]), nil
}

// Write writes p at the cursor and advances it.
func (s *Span) Write(p []byte) (int, error) {
	n, err := s.WriteAt(p, s.cursor)
	s.cursor += int64(n)
	return n, err
}

// Seek moves the cursor used by Write.
func (s *Span) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.cursor + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return s.cursor, newError("Seek", KindInvalidArgument, "invalid whence %d", whence)
	}
	if abs < 0 || abs > int64(len(s.buf)) {
		return s.cursor, newError("Seek", KindOutOfRange, "position %d outside span of %d bytes", abs, len(s.buf))
	}
	s.cursor = abs
	return abs, nil
}

// Zero clears n bytes starting at off.
func (s *Span) Zero(off, n uint64) error {
	if off > uint64(len(s.buf)) || n > uint64(len(s.buf))-off {
		return newError("Zero", KindOutOfRange, "offset %d length %d exceeds span of %d bytes", off, n, len(s.buf))
	}
	clear(s.buf[off : off+n])
	return nil
}

// Slice returns the n bytes at off without copying.
func (s *Span) Slice(off, n uint64) ([]byte, error) {
	if off > uint64(len(s.buf)) || n > uint64(len(s.buf))-off {
		return nil, newError("Slice", KindOutOfRange, "offset %d length %d exceeds span of %d bytes", off, n, len(s.buf))
	}
	return s.buf[off : off+n : off+n], nil
}
