package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/flashsort-go/flashsort"
	"github.com/flashsort-go/flashsort/config"
	"github.com/flashsort-go/flashsort/metrics"
)

func newSortCmd() *cli.Command {
	return &cli.Command{
		Name:      "sort",
		Usage:     "run one external sort against a config file",
		ArgsUsage: "<config.jsonc>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Usage: "suppress the progress bar"},
			&cli.BoolFlag{Name: "serve-metrics", Usage: "expose Prometheus counters while sorting"},
			&cli.StringFlag{Name: "metrics-addr", Value: ":9090", Usage: "address for --serve-metrics"},
			&cli.BoolFlag{Name: "scratch-region-index", Usage: "carve the region index out of the scratch buffer instead of allocating it"},
		},
		Action: runSort,
	}
}

func runSort(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("sort: missing <config.jsonc> argument")
	}

	cfg, err := config.Load(c.Args().Get(0))
	if err != nil {
		return err
	}
	params := cfg.Params()

	var sink flashsort.Sink = &metrics.MapSink{}
	if c.Bool("serve-metrics") {
		reg := prometheus.NewRegistry()
		promSink := metrics.NewPromSink(reg, "flashsort-sort")
		sink = promSink

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: c.String("metrics-addr"), Handler: mux}
		go srv.ListenAndServe()
		fmt.Printf("flashsort: serving metrics on %s/metrics\n", c.String("metrics-addr"))
	}

	var bar *progressbar.ProgressBar
	if !c.Bool("quiet") {
		bar = progressbar.Default(int64(params.NumRecords), "sorting")
	}

	engineOpts := []flashsort.Option{flashsort.WithSink(sink)}
	if c.Bool("scratch-region-index") {
		engineOpts = append(engineOpts, flashsort.WithRegionIndexInScratch(true))
	}

	started := time.Now()
	result, err := flashsort.Sort(cfg.InputPath, cfg.OutputPath, params,
		flashsort.WithEngineOptions(engineOpts...),
		flashsort.WithSortLogger(flashsort.StderrLogger{}),
		flashsort.WithProgress(func(emitted, total int) {
			if bar != nil {
				bar.Set(emitted)
			}
		}),
	)
	elapsed := time.Since(started)

	if err != nil {
		return fmt.Errorf("sort: status %d: %w", result.Status, err)
	}

	if m, ok := sink.(*metrics.MapSink); ok {
		fmt.Printf("flashsort: sorted %s records in %s (%d reads, %d compares, %d writes, %d copies)\n",
			humanize.Comma(int64(params.NumRecords)), elapsed,
			m.Reads(), m.Compares(), m.Writes(), m.Memcpys())
	} else {
		fmt.Printf("flashsort: sorted %s records in %s\n", humanize.Comma(int64(params.NumRecords)), elapsed)
	}

	return nil
}
