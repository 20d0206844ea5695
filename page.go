package flashsort

import (
	"encoding/binary"
	"fmt"
	"io"
)

// noPage is the sentinel for "nothing resident yet", distinct from any
// valid page index.
const noPage = -1

// PageReader seeks to a page index in an input file and fills a scratch
// page-sized slice. It reads through io.ReaderAt rather than an
// io.ReadSeeker so that a single Reader never carries a shared cursor
// position between calls. The page-resident elision below is then the
// only state it tracks, not a seek/position invariant the caller also has
// to maintain.
type PageReader struct {
	input  io.ReaderAt
	buf    []byte // exactly params.PageSize bytes
	sink   Sink
	params Params

	lastPage int
}

// NewPageReader constructs a reader over buf, which must be at least
// params.PageSize bytes; only the first PageSize bytes are ever touched.
func NewPageReader(input io.ReaderAt, buf []byte, params Params, sink Sink) *PageReader {
	if sink == nil {
		sink = noopSink{}
	}
	return &PageReader{
		input:    input,
		buf:      buf[:params.PageSize],
		sink:     sink,
		params:   params,
		lastPage: noPage,
	}
}

// LastPage reports the page index currently resident in the scratch slice,
// or noPage if nothing has been read yet.
func (r *PageReader) LastPage() int { return r.lastPage }

// ReadPage fills the scratch slice with page p, skipping the read entirely
// if p is already resident; sequential records on the same page would
// otherwise force a re-read per record. Fails with ErrIoFailure on a short
// read.
func (r *PageReader) ReadPage(p int) error {
	if p == r.lastPage {
		return nil
	}

	offset := int64(p) * int64(r.params.PageSize)
	n, err := r.input.ReadAt(r.buf, offset)
	if err != nil && !(err == io.EOF && n == len(r.buf)) {
		return fmt.Errorf("%w: short read at page %d: %v", ErrIoFailure, p, err)
	}
	if n != len(r.buf) {
		return fmt.Errorf("%w: short read at page %d: got %d of %d bytes", ErrIoFailure, p, n, len(r.buf))
	}

	r.sink.AddReads(1)
	r.lastPage = p
	return nil
}

// KeyAt returns the signed key at the given page-local record slot. Pure;
// the caller guarantees the correct page is resident and slot is within
// the page.
func (r *PageReader) KeyAt(slot int) int64 {
	off := r.params.HeaderSize + slot*r.params.RecordSize
	return int64(binary.LittleEndian.Uint64(r.buf[off : off+KeyWidth]))
}

// CopyRecord copies the full record at the given page-local slot into dst,
// which must be at least RecordSize bytes.
func (r *PageReader) CopyRecord(slot int, dst []byte) {
	off := r.params.HeaderSize + slot*r.params.RecordSize
	copy(dst, r.buf[off:off+r.params.RecordSize])
}
