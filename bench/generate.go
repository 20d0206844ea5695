// Package bench builds and inspects synthetic datasets for exercising
// flashsort: a page-formatted input generator, a rotating-shard writer for
// datasets too large for one file, a bloom-filter cardinality estimator, a
// whole-file checksum, and an indexed archive format used by the CLI's
// verify subcommand.
package bench

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/flashsort-go/flashsort"
)

// Distribution selects the key ordering a Generator produces.
type Distribution int

const (
	// Uniform draws keys independently at random.
	Uniform Distribution = iota
	// Sorted emits keys already in ascending order (the best case).
	Sorted
	// Reverse emits keys in descending order (the worst case for naive sorts).
	Reverse
)

// Generator produces a synthetic page-formatted dataset matching
// flashsort's input layout: one KeyWidth-byte little-endian key at offset
// 0 of each record slot, remaining record and header bytes zeroed.
// Deterministic for a given seed, so bench runs are reproducible.
type Generator struct {
	params flashsort.Params
	rng    *rand.Rand
	dist   Distribution
}

// NewGenerator builds a Generator that will emit params.NumRecords keys laid
// out across params.NumPages pages, honoring params.RecordsPerPage().
func NewGenerator(params flashsort.Params, seed int64, dist Distribution) (*Generator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Generator{params: params, rng: rand.New(rand.NewSource(seed)), dist: dist}, nil
}

// Generate writes the full dataset into buf, which must be exactly
// params.NumPages*params.PageSize bytes.
func (g *Generator) Generate(buf []byte) error {
	want := g.params.NumPages * g.params.PageSize
	if len(buf) != want {
		return fmt.Errorf("bench: buffer is %d bytes, want %d", len(buf), want)
	}

	keys := g.keys()

	recordsPerPage := g.params.RecordsPerPage()
	for i, key := range keys {
		page := i / recordsPerPage
		slot := i % recordsPerPage
		off := page*g.params.PageSize + g.params.HeaderSize + slot*g.params.RecordSize
		binary.LittleEndian.PutUint64(buf[off:off+flashsort.KeyWidth], uint64(key))
	}
	return nil
}

// keys returns params.NumRecords keys in the Generator's distribution.
func (g *Generator) keys() []int64 {
	keys := make([]int64, g.params.NumRecords)
	switch g.dist {
	case Sorted:
		for i := range keys {
			keys[i] = int64(i)
		}
	case Reverse:
		for i := range keys {
			keys[i] = int64(len(keys) - 1 - i)
		}
	default:
		for i := range keys {
			keys[i] = g.rng.Int63()
		}
	}
	return keys
}
