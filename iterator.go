package flashsort

import "fmt"

// Iterator is the two-phase "locate-then-advance" state machine at the
// center of the sort. One call to Next returns one output record, or false
// when the input is exhausted. It never allocates on the Next path.
type Iterator struct {
	reader *PageReader
	idx    *Index
	params Params
	sink   Sink

	blocksPerRegion int
	recordsPerPage  int

	current   int64
	next      int64
	hasNext   bool // whether next holds an observed key yet
	nextIdx   int  // region-local linear position; 0 means "scan region from start"
	regionIdx int
}

// NewIterator wires an Iterator over an already-Init'd Index.
func NewIterator(reader *PageReader, idx *Index, params Params, blocksPerRegion int, sink Sink) *Iterator {
	if sink == nil {
		sink = noopSink{}
	}
	return &Iterator{
		reader:          reader,
		idx:             idx,
		params:          params,
		sink:            sink,
		blocksPerRegion: blocksPerRegion,
		recordsPerPage:  params.RecordsPerPage(),
		current:         sentinelMax,
		nextIdx:         0,
		regionIdx:       -1,
	}
}

// Next yields the next record in ascending key order into dst (which must
// be at least params.RecordSize bytes), reporting ok=false once every
// record has been emitted.
func (it *Iterator) Next(dst []byte) (ok bool, err error) {
	if it.nextIdx == 0 {
		if !it.selectRegion() {
			return false, nil
		}
	}

	foundPage, foundSlot, err := it.locate(dst)
	if err != nil {
		return false, err
	}

	if err := it.advance(foundPage, foundSlot); err != nil {
		return false, err
	}

	return true, nil
}

// selectRegion is Phase A: scan the region index, pick the undrained
// region holding the smallest minimum, breaking ties by lowest index.
// Returns false once every region is drained. Drain-ness comes from the
// index's bitset, never from comparing against sentinelMax, so records
// whose key is the maximum representable value still get emitted.
func (it *Iterator) selectRegion() bool {
	it.regionIdx = -1
	it.next = 0
	it.hasNext = false

	for r := 0; r < it.idx.Len(); r++ {
		if it.idx.Drained(r) {
			continue
		}
		it.sink.AddCompar(1)
		if it.regionIdx == -1 || it.idx.Min(r) < it.current {
			it.current = it.idx.Min(r)
			it.regionIdx = r
		}
	}

	return it.regionIdx != -1
}

// locate is Phase B: scan forward from nextIdx within the active region
// for a record equal to current, copying it into dst on the first match.
// Returns the (page, slot) of the match for advance to resume from.
func (it *Iterator) locate(dst []byte) (foundPage, foundSlot int, err error) {
	startBlk := it.regionIdx * it.blocksPerRegion
	startPage := it.nextIdx / it.recordsPerPage
	startSlot := it.nextIdx % it.recordsPerPage

	for page := startPage; page < it.blocksPerRegion; page++ {
		curBlk := startBlk + page
		// The last region may extend past the file's final page; pages with
		// no valid records are never read.
		if curBlk*it.recordsPerPage >= it.params.NumRecords {
			break
		}
		if err := it.reader.ReadPage(curBlk); err != nil {
			return 0, 0, err
		}

		slot := 0
		if page == startPage {
			slot = startSlot
		}

		for ; slot < it.recordsPerPage; slot++ {
			if curBlk*it.recordsPerPage+slot >= it.params.NumRecords {
				break
			}

			val := it.reader.KeyAt(slot)
			it.sink.AddCompar(1)

			if val == it.current {
				it.reader.CopyRecord(slot, dst)
				it.sink.AddMemcpys(1)
				return page, slot, nil
			}

			if val > it.current && (!it.hasNext || val < it.next) {
				it.next = val
				it.hasNext = true
				it.nextIdx = 0
			}
		}
	}

	return 0, 0, fmt.Errorf("%w: region %d exhausted without finding current=%d", ErrInvariant, it.regionIdx, it.current)
}

// advance is Phase C: scan the remainder of the region after the just-found
// record, either locating the next occurrence of current (setting nextIdx
// so the following Next call finds it immediately) or refining next into
// the region's new minimum once the region is confirmed drained of
// current.
func (it *Iterator) advance(foundPage, foundSlot int) error {
	startBlk := it.regionIdx * it.blocksPerRegion
	it.nextIdx = 0

	page := foundPage
	slot := foundSlot + 1

	for ; page < it.blocksPerRegion; page++ {
		curBlk := startBlk + page
		if curBlk*it.recordsPerPage >= it.params.NumRecords {
			break
		}
		if page != foundPage {
			if err := it.reader.ReadPage(curBlk); err != nil {
				return err
			}
			slot = 0
		}

		for ; slot < it.recordsPerPage; slot++ {
			if curBlk*it.recordsPerPage+slot >= it.params.NumRecords {
				break
			}

			val := it.reader.KeyAt(slot)
			it.sink.AddCompar(1)

			if val == it.current {
				it.nextIdx = page*it.recordsPerPage + slot
				return nil
			}

			if val > it.current && (!it.hasNext || val < it.next) {
				it.next = val
				it.hasNext = true
				it.nextIdx = 0
			}
		}
	}

	if it.hasNext {
		it.idx.setMin(it.regionIdx, it.next)
	} else {
		it.idx.markDrained(it.regionIdx)
	}
	return nil
}
