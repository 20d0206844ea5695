package flashsort

import (
	"encoding/binary"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// sentinelMax is what min[r] holds before Init observes a key and after a
// region drains. It is never compared for region-drained decisions;
// Index.Drained is authoritative via the bitset below, so a legitimate
// record whose key equals math.MaxInt64 can never be confused with a
// drained region.
const sentinelMax = int64(math.MaxInt64)

// Index is the fixed in-RAM region-minimum array. Its invariant: min[r]
// equals the smallest key among the still-unreturned records in region r,
// for every region not marked drained. The entries are stored as
// KeyWidth-byte little-endian values over a plain byte slice so the whole
// array can live inside a caller's scratch buffer.
type Index struct {
	min        []byte // numRegions KeyWidth-byte little-endian entries
	numRegions int
	drained    *bitset.BitSet
}

// NewIndex allocates a region index of numRegions entries. When backing is
// non-nil and at least numRegions*KeyWidth bytes, it is used in place of a
// fresh allocation, giving a zero-additional-allocation sort when the
// caller has spare room in their own scratch buffer.
func NewIndex(numRegions int, backing []byte) *Index {
	need := numRegions * KeyWidth
	var min []byte
	if backing != nil && len(backing) >= need {
		min = backing[:need]
	} else {
		min = make([]byte, need)
	}
	idx := &Index{min: min, numRegions: numRegions, drained: bitset.New(uint(numRegions))}
	for r := 0; r < numRegions; r++ {
		idx.put(r, sentinelMax)
	}
	return idx
}

// Len returns the number of regions.
func (idx *Index) Len() int { return idx.numRegions }

// Min returns region r's current minimum. Meaningless once Drained(r).
func (idx *Index) Min(r int) int64 {
	return int64(binary.LittleEndian.Uint64(idx.min[r*KeyWidth:]))
}

func (idx *Index) put(r int, v int64) {
	binary.LittleEndian.PutUint64(idx.min[r*KeyWidth:], uint64(v))
}

// Drained reports whether region r has been fully emitted.
func (idx *Index) Drained(r int) bool { return idx.drained.Test(uint(r)) }

// update sets region r's minimum to v if v is smaller than the current
// value, observing the invariant unconditionally (callers don't need to
// compare first).
func (idx *Index) update(r int, v int64) {
	if v < idx.Min(r) {
		idx.put(r, v)
	}
}

// setMin replaces region r's minimum outright (used once a scan of the
// active region's remainder has determined the true next value).
func (idx *Index) setMin(r int, v int64) {
	idx.put(r, v)
	idx.drained.Clear(uint(r))
}

// markDrained records that region r has no unreturned records left.
func (idx *Index) markDrained(r int) {
	idx.put(r, sentinelMax)
	idx.drained.Set(uint(r))
}

// Init performs the single full pass over the input that seeds the region
// index: for every region r, min[r] becomes the smallest key among region
// r's valid records, and regions holding none are marked drained. Any
// smaller scan could miss a region's minimum; later sort passes re-read
// pages, but never this one.
func Init(reader *PageReader, params Params, blocksPerRegion int, idx *Index, sink Sink) error {
	if sink == nil {
		sink = noopSink{}
	}
	recordsPerPage := params.RecordsPerPage()

	// Valid records form a prefix of the file, so a region is empty exactly
	// when its first linear record slot is at or past NumRecords. Deciding
	// this arithmetically (rather than by min[r] still holding sentinelMax
	// after the pass) keeps a region whose records all carry the maximum
	// key value from being mistaken for an empty one.
	for r := 0; r < idx.Len(); r++ {
		if r*blocksPerRegion*recordsPerPage >= params.NumRecords {
			idx.markDrained(r)
		}
	}
	if params.NumRecords == 0 {
		return nil
	}

	for i := 0; i < params.NumPages; i++ {
		if i*recordsPerPage >= params.NumRecords {
			break
		}
		if err := reader.ReadPage(i); err != nil {
			return err
		}
		regionIdx := i / blocksPerRegion

		for j := 0; j < recordsPerPage; j++ {
			if i*recordsPerPage+j >= params.NumRecords {
				break
			}
			key := reader.KeyAt(j)
			sink.AddCompar(1)
			idx.update(regionIdx, key)
		}
	}

	return nil
}
