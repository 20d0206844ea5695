package flashsort

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Output accumulates emitted records into an in-RAM output page (the upper
// half of the caller's scratch buffer) and flushes full pages to w,
// stamping the block index and record count into each page's header just
// before it goes out.
type Output struct {
	w      io.Writer
	buf    []byte // exactly params.PageSize bytes
	params Params
	sink   Sink

	count      int
	blockIndex uint32
}

// NewOutput constructs an Output writing full pages to w as they fill.
func NewOutput(w io.Writer, buf []byte, params Params, sink Sink) *Output {
	if sink == nil {
		sink = noopSink{}
	}
	return &Output{
		w:      w,
		buf:    buf[:params.PageSize],
		params: params,
		sink:   sink,
	}
}

// Append places record (exactly params.RecordSize bytes) into the current
// output page at slot Count, flushing the page as soon as this record fills
// it.
func (o *Output) Append(record []byte) error {
	if len(record) != o.params.RecordSize {
		return fmt.Errorf("flashsort: record has %d bytes, want %d", len(record), o.params.RecordSize)
	}

	off := o.params.HeaderSize + o.count*o.params.RecordSize
	copy(o.buf[off:off+o.params.RecordSize], record)
	o.count++

	if o.count == o.params.RecordsPerPage() {
		return o.flush()
	}
	return nil
}

// Count reports the number of records accumulated in the current,
// not-yet-flushed page.
func (o *Output) Count() int { return o.count }

// BlockIndex reports the index the next flushed page will carry.
func (o *Output) BlockIndex() uint32 { return o.blockIndex }

func (o *Output) flush() error {
	binary.LittleEndian.PutUint32(o.buf[0:4], o.blockIndex)
	binary.LittleEndian.PutUint16(o.buf[BlockCountOffset:BlockCountOffset+2], uint16(o.count))

	n, err := o.w.Write(o.buf)
	if err != nil || n != len(o.buf) {
		return fmt.Errorf("%w: short write at block %d: %v", ErrIoFailure, o.blockIndex, err)
	}

	o.sink.AddWrites(1)
	o.blockIndex++
	o.count = 0
	return nil
}

// FlushFinal writes the trailing partial page, if any.
func (o *Output) FlushFinal() error {
	if o.count == 0 {
		return nil
	}

	// zero the unused tail so a short final page never carries stale
	// bytes from an earlier, larger page that shared this buffer.
	tailOff := o.params.HeaderSize + o.count*o.params.RecordSize
	for i := tailOff; i < len(o.buf); i++ {
		o.buf[i] = 0
	}

	return o.flush()
}
