package bench

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"
)

// Estimator counts approximate distinct keys seen across a dataset without
// retaining them. The engine's RAM-budget math assumes nothing about key
// duplication, but a bench report showing how skewed a generated dataset
// is helps interpret re-read counts.
type Estimator struct {
	filter   *bloom.BloomFilter
	total    int64
	distinct int64
}

// NewEstimator sizes the underlying bloom filter for expectedKeys at a 1%
// false-positive rate.
func NewEstimator(expectedKeys uint) *Estimator {
	return &Estimator{filter: bloom.NewWithEstimates(expectedKeys, 0.01)}
}

// Observe folds one key into the estimate.
func (e *Estimator) Observe(key int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))

	e.total++
	if !e.filter.TestAndAdd(buf[:]) {
		e.distinct++
	}
}

// Total returns the number of keys observed.
func (e *Estimator) Total() int64 { return e.total }

// DistinctEstimate returns the approximate number of distinct keys observed;
// it can undercount slightly due to the filter's false-positive rate, never
// overcount.
func (e *Estimator) DistinctEstimate() int64 { return e.distinct }
