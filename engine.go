package flashsort

import (
	"fmt"
	"io"
)

// Engine wires the page reader, region index, and iterator together for
// one sort. Construct it with NewEngine; drive it with Next until it
// returns false, then discard it. An Engine is single-use and
// single-threaded.
type Engine struct {
	params Params
	sink   Sink

	blocksPerRegion      int
	regionIndexInScratch bool

	reader *PageReader
	index  *Index
	iter   *Iterator
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithSink routes engine counters through s instead of discarding them.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithRegionIndexInScratch places the region-minimum array inside the tail
// of the caller's scratch buffer instead of a fresh heap allocation, a
// correctness-neutral, zero-additional-allocation sort mode. The scratch
// buffer must then be at least params.ScratchSize(true) bytes.
func WithRegionIndexInScratch(on bool) Option {
	return func(e *Engine) { e.regionIndexInScratch = on }
}

// NewEngine validates params, performs the single init pass over input,
// and returns an Engine ready to be driven by Next. scratch must be at
// least params.ScratchSize(false) bytes: the first PageSize bytes are the
// input page slot, the second PageSize the output page slot. Under
// WithRegionIndexInScratch(true) the region index occupies the tail of
// scratch as well and the params.ScratchSize(true) minimum applies.
func NewEngine(input io.ReaderAt, scratch []byte, params Params, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		params: params,
		sink:   noopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}

	blocksPerRegion, numRegions := params.RegionLayout()
	e.blocksPerRegion = blocksPerRegion

	if need := params.ScratchSize(e.regionIndexInScratch); len(scratch) < need {
		return nil, fmt.Errorf("%w: scratch buffer is %d bytes, need at least %d", ErrConfig, len(scratch), need)
	}

	e.reader = NewPageReader(input, scratch[:params.PageSize], params, e.sink)

	var backing []byte
	if e.regionIndexInScratch {
		backing = scratch[2*params.PageSize : 2*params.PageSize+numRegions*KeyWidth]
	}
	e.index = NewIndex(numRegions, backing)

	if err := Init(e.reader, params, blocksPerRegion, e.index, e.sink); err != nil {
		return nil, err
	}

	e.iter = NewIterator(e.reader, e.index, params, blocksPerRegion, e.sink)

	return e, nil
}

// Next yields the next record in ascending key order into dst.
func (e *Engine) Next(dst []byte) (ok bool, err error) {
	return e.iter.Next(dst)
}

// Sink returns the engine's metrics sink, so a caller building an Output
// writer alongside this Engine can share the same counters.
func (e *Engine) Sink() Sink { return e.sink }

// NumRegions reports the region count G chosen from the RAM budget.
func (e *Engine) NumRegions() int { return e.index.Len() }

// BlocksPerRegion reports B, the region granularity chosen from the RAM budget.
func (e *Engine) BlocksPerRegion() int { return e.blocksPerRegion }
