package flashsort

import (
	"math"
	"testing"
)

func TestInitComputesPerRegionMinimum(t *testing.T) {
	// 32-byte pages hold 3 records, so every page is full and all 9 keys
	// are valid records.
	f, params := buildInput(t, 32, testHeaderSize, testRecordSize,
		[][]int64{
			{5, 2, 9},
			{7, 1, 3},
			{8, 8, 8},
		}, 9)
	params.RAMBudget = 24 // K=8 -> gMax=3, B=ceil(3/3)=1, G=ceil(3/1)=3

	blocksPerRegion, numRegions := params.RegionLayout()
	if blocksPerRegion != 1 || numRegions != 3 {
		t.Fatalf("got B=%d G=%d, want B=1 G=3", blocksPerRegion, numRegions)
	}

	reader := NewPageReader(f, make([]byte, params.PageSize), params, nil)
	idx := NewIndex(numRegions, nil)
	if err := Init(reader, params, blocksPerRegion, idx, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}

	want := []int64{2, 1, 8}
	for r, w := range want {
		if idx.Min(r) != w {
			t.Errorf("region %d min = %d, want %d", r, idx.Min(r), w)
		}
		if idx.Drained(r) {
			t.Errorf("region %d unexpectedly drained after init", r)
		}
	}
}

func TestInitMarksEmptyRegionsDrained(t *testing.T) {
	f, params := buildInput(t, testPageSize, testHeaderSize, testRecordSize,
		[][]int64{{1, 2, 3}, {}}, 3) // second page has no valid records
	params.RAMBudget = 16            // gMax=2, B=ceil(2/2)=1, G=ceil(2/1)=2

	blocksPerRegion, numRegions := params.RegionLayout()
	reader := NewPageReader(f, make([]byte, params.PageSize), params, nil)
	idx := NewIndex(numRegions, nil)
	if err := Init(reader, params, blocksPerRegion, idx, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if idx.Drained(0) {
		t.Fatalf("region 0 should not be drained (has records)")
	}
	if !idx.Drained(1) {
		t.Fatalf("region 1 should be drained (no valid records)")
	}
}

func TestInitKeepsMaxKeyRegionUndrained(t *testing.T) {
	// min[r] holding the maximum key value is indistinguishable from the
	// pre-scan placeholder by value alone; the drained bit must still say
	// this region has records.
	f, params := buildInput(t, testPageSize, testHeaderSize, testRecordSize,
		[][]int64{{math.MaxInt64, math.MaxInt64}}, 2)
	params.RAMBudget = 8

	blocksPerRegion, numRegions := params.RegionLayout()
	reader := NewPageReader(f, make([]byte, params.PageSize), params, nil)
	idx := NewIndex(numRegions, nil)
	if err := Init(reader, params, blocksPerRegion, idx, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if idx.Drained(0) {
		t.Fatalf("region 0 drained after init despite holding records")
	}
	if idx.Min(0) != math.MaxInt64 {
		t.Fatalf("region 0 min = %d, want MaxInt64", idx.Min(0))
	}
}

func TestIndexBacking(t *testing.T) {
	backing := make([]byte, 4*KeyWidth)
	idx := NewIndex(4, backing)
	if &idx.min[0] != &backing[0] {
		t.Fatalf("NewIndex should reuse the supplied backing slice")
	}
	if idx.Min(2) != sentinelMax {
		t.Fatalf("fresh index min = %d, want the pre-scan placeholder", idx.Min(2))
	}

	small := make([]byte, KeyWidth)
	idx2 := NewIndex(4, small)
	if &idx2.min[0] == &small[0] {
		t.Fatalf("NewIndex should not reuse an undersized backing slice")
	}
}
