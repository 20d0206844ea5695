package flashsort

import (
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// Result is the outcome of a Sort: Status is 0 on success and 9 when the
// sort fails after the engine was built (an output write failure, or a read
// or invariant error while iterating). Failures before that point (invalid
// params, an input or temp output that cannot be opened, NewEngine
// refusing) return a zero Result, so the returned error is the failure
// signal. ResultFilePtr is the byte offset within the output file of the
// first output record (always 0 on success).
type Result struct {
	Status        int
	ResultFilePtr int64
}

type driverConfig struct {
	onProgress func(emitted, total int)
	engineOpts []Option
	logger     Logger
}

// DriverOption configures Sort's orchestration beyond engine construction.
type DriverOption func(*driverConfig)

// WithProgress registers a callback invoked after every emitted record. A
// nil hook (the default) changes nothing about the sort itself.
func WithProgress(fn func(emitted, total int)) DriverOption {
	return func(c *driverConfig) { c.onProgress = fn }
}

// WithEngineOptions forwards Engine options (WithSink,
// WithRegionIndexInScratch, ...) to the Engine that Sort constructs
// internally.
func WithEngineOptions(opts ...Option) DriverOption {
	return func(c *driverConfig) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithSortLogger routes the driver's non-fatal diagnostics (a temp output
// file that could not be removed during cleanup) through l.
func WithSortLogger(l Logger) DriverOption {
	return func(c *driverConfig) { c.logger = l }
}

// Sort drives one full external sort: it opens inputPath read-only, builds
// an Engine, drives Next in a loop packing records into output pages,
// flushes the trailing page, and atomically publishes the result at
// outputPath only once every page has been written successfully. A failed
// sort never leaves partial bytes at outputPath at all; the real path is
// only ever reached via one atomic rename.
func Sort(inputPath, outputPath string, params Params, opts ...DriverOption) (Result, error) {
	cfg := &driverConfig{logger: noopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("flashsort: opening input: %w", err)
	}
	defer in.Close()

	tmpPath := outputPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return Result{}, fmt.Errorf("flashsort: creating temp output: %w", err)
	}

	removeTmp := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			cfg.logger.Printf("flashsort: removing temp output: %v", rmErr)
		}
	}
	fail := func(err error) (Result, error) {
		out.Close()
		removeTmp()
		return Result{Status: 9}, err
	}

	// The engine options are applied to a throwaway Engine first so the
	// scratch buffer can be sized before the real construction reapplies
	// them: under WithRegionIndexInScratch the region index shares this one
	// buffer with the two page slots.
	var probe Engine
	for _, opt := range cfg.engineOpts {
		opt(&probe)
	}

	scratch := make([]byte, params.ScratchSize(probe.regionIndexInScratch))
	engine, err := NewEngine(in, scratch, params, cfg.engineOpts...)
	if err != nil {
		out.Close()
		removeTmp()
		return Result{}, err
	}

	writer := NewOutput(out, scratch[params.PageSize:2*params.PageSize], params, engine.Sink())

	tuple := make([]byte, params.RecordSize)
	emitted := 0

	for {
		ok, err := engine.Next(tuple)
		if err != nil {
			return fail(err)
		}
		if !ok {
			break
		}

		if err := writer.Append(tuple); err != nil {
			return fail(err)
		}

		emitted++
		if cfg.onProgress != nil {
			cfg.onProgress(emitted, params.NumRecords)
		}
	}

	if err := writer.FlushFinal(); err != nil {
		return fail(err)
	}

	if err := out.Close(); err != nil {
		removeTmp()
		return Result{Status: 9}, fmt.Errorf("%w: closing output: %v", ErrIoFailure, err)
	}

	if err := atomic.ReplaceFile(tmpPath, outputPath); err != nil {
		removeTmp()
		return Result{Status: 9}, fmt.Errorf("flashsort: publishing output: %w", err)
	}

	return Result{Status: 0, ResultFilePtr: 0}, nil
}
