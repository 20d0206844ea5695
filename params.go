package flashsort

import "fmt"

// KeyWidth is the width in bytes of the fixed-position signed integer key
// every record carries at offset 0. The engine compares these keys
// directly; there is no pluggable comparison callback.
const KeyWidth = 8

// BlockCountOffset is the byte offset within an output page's header at
// which the page's record count (uint16) is stamped.
const BlockCountOffset = 4

// Params mirrors the external_sort_t descriptor plus the RAM budget that
// drives region sizing.
type Params struct {
	PageSize   int // bytes per page, input and output
	HeaderSize int // bytes of page header before the first record
	RecordSize int // bytes per record, key at offset 0
	NumPages   int // P: total input pages
	NumRecords int // N: total valid input records, N <= NumPages*RecordsPerPage
	RAMBudget  int // M: bytes available for the region index
}

// RecordsPerPage is R = floor((PageSize - HeaderSize) / RecordSize).
func (p Params) RecordsPerPage() int {
	return (p.PageSize - p.HeaderSize) / p.RecordSize
}

// RegionLayout derives the region granularity from the RAM budget:
// G_max = floor(M/K), B = ceil(P/G_max), G = ceil(P/B). Smaller budgets
// give coarser regions and therefore more re-reads per distinct key.
func (p Params) RegionLayout() (blocksPerRegion, numRegions int) {
	gMax := p.RAMBudget / KeyWidth
	if gMax < 1 {
		gMax = 1
	}
	blocksPerRegion = ceilDiv(p.NumPages, gMax)
	if blocksPerRegion < 1 {
		blocksPerRegion = 1
	}
	numRegions = ceilDiv(p.NumPages, blocksPerRegion)
	return blocksPerRegion, numRegions
}

// ScratchSize is the minimum scratch buffer NewEngine accepts: one input
// page slot plus one output page slot, plus the region index itself when
// regionIndexInScratch places it there too.
func (p Params) ScratchSize(regionIndexInScratch bool) int {
	n := 2 * p.PageSize
	if regionIndexInScratch {
		_, numRegions := p.RegionLayout()
		n += numRegions * KeyWidth
	}
	return n
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Validate rejects parameter combinations that cannot produce a valid
// region layout. It is the engine's single point of refusal: an error
// here is fatal and the sort must not begin.
func (p Params) Validate() error {
	if p.RAMBudget < KeyWidth {
		return fmt.Errorf("%w: RAM budget %d smaller than key width %d", ErrConfig, p.RAMBudget, KeyWidth)
	}
	if p.PageSize < p.HeaderSize+p.RecordSize {
		return fmt.Errorf("%w: page size %d smaller than header+record (%d+%d)", ErrConfig, p.PageSize, p.HeaderSize, p.RecordSize)
	}
	if p.RecordsPerPage() < 1 {
		return fmt.Errorf("%w: records per page is %d, must be >= 1", ErrConfig, p.RecordsPerPage())
	}
	if p.NumPages < 0 || p.NumRecords < 0 {
		return fmt.Errorf("%w: negative page or record count", ErrConfig)
	}
	if p.NumRecords > p.NumPages*p.RecordsPerPage() {
		return fmt.Errorf("%w: num records %d exceeds capacity %d", ErrConfig, p.NumRecords, p.NumPages*p.RecordsPerPage())
	}
	return nil
}
