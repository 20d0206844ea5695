package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/flashsort-go/flashsort"
	"github.com/flashsort-go/flashsort/bench"
)

func newBenchCmd() *cli.Command {
	return &cli.Command{
		Name:      "bench",
		Usage:     "generate a synthetic page-formatted dataset",
		ArgsUsage: "<out-path>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "pages", Value: 1000, Usage: "P: number of input pages"},
			&cli.IntFlag{Name: "page-size", Value: 4096},
			&cli.IntFlag{Name: "header-size", Value: 8},
			&cli.IntFlag{Name: "record-size", Value: 32},
			&cli.IntFlag{Name: "ram-budget", Value: 65536, Usage: "M: region index RAM budget in bytes"},
			&cli.StringFlag{Name: "dist", Value: "uniform", Usage: "uniform, sorted, or reverse"},
			&cli.Int64Flag{Name: "seed", Value: 1},
			&cli.BoolFlag{Name: "gzip", Usage: "also write <out-path>.gz"},
			&cli.BoolFlag{Name: "estimate", Usage: "report an approximate distinct-key count"},
			&cli.IntFlag{Name: "shard-bytes", Usage: "split the dataset across shard files of this size instead of writing one file"},
		},
		Action: runBench,
	}
}

func runBench(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("bench: missing <out-path> argument")
	}
	outPath := c.Args().Get(0)

	recordsPerPage := (c.Int("page-size") - c.Int("header-size")) / c.Int("record-size")
	params := flashsort.Params{
		PageSize:   c.Int("page-size"),
		HeaderSize: c.Int("header-size"),
		RecordSize: c.Int("record-size"),
		NumPages:   c.Int("pages"),
		NumRecords: c.Int("pages") * recordsPerPage,
		RAMBudget:  c.Int("ram-budget"),
	}

	dist, err := parseDistribution(c.String("dist"))
	if err != nil {
		return err
	}

	gen, err := bench.NewGenerator(params, c.Int64("seed"), dist)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	buf := make([]byte, params.NumPages*params.PageSize)
	if err := gen.Generate(buf); err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	if shardBytes := c.Int("shard-bytes"); shardBytes > 0 {
		if err := writeSharded(buf, params.PageSize, outPath, shardBytes); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(outPath, buf, 0o644); err != nil {
			return fmt.Errorf("bench: writing %s: %w", outPath, err)
		}
	}

	fmt.Printf("flashsort: generated %s records across %s pages (%s) at %s\n",
		humanize.Comma(int64(params.NumRecords)), humanize.Comma(int64(params.NumPages)),
		humanize.Bytes(uint64(len(buf))), outPath)

	if c.Bool("gzip") {
		gzPath := outPath + ".gz"
		if err := bench.CompressFile(outPath, gzPath); err != nil {
			return fmt.Errorf("bench: %w", err)
		}
		fmt.Printf("flashsort: wrote %s\n", gzPath)
	}

	if c.Bool("estimate") {
		est := bench.NewEstimator(uint(params.NumRecords))
		recordsPerPage := params.RecordsPerPage()
		for i := 0; i < params.NumRecords; i++ {
			page := i / recordsPerPage
			slot := i % recordsPerPage
			off := page*params.PageSize + params.HeaderSize + slot*params.RecordSize
			key := int64(binary.LittleEndian.Uint64(buf[off : off+flashsort.KeyWidth]))
			est.Observe(key)
		}
		fmt.Printf("flashsort: ~%s distinct keys out of %s total\n",
			humanize.Comma(est.DistinctEstimate()), humanize.Comma(est.Total()))
	}

	return nil
}

func writeSharded(buf []byte, pageSize int, dir string, shardBytes int) error {
	w, err := bench.NewShardWriter(dir, bench.WithMaxShardSize(int64(shardBytes)))
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	defer w.Close()

	for off := 0; off < len(buf); off += pageSize {
		if err := w.WritePage(buf[off : off+pageSize]); err != nil {
			return fmt.Errorf("bench: %w", err)
		}
	}
	fmt.Printf("flashsort: wrote %d shard(s) under %s\n", w.ShardCount(), dir)
	return nil
}

func parseDistribution(s string) (bench.Distribution, error) {
	switch s {
	case "uniform":
		return bench.Uniform, nil
	case "sorted":
		return bench.Sorted, nil
	case "reverse":
		return bench.Reverse, nil
	default:
		return 0, fmt.Errorf("bench: unknown --dist %q (want uniform, sorted, or reverse)", s)
	}
}
