package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/flashsort-go/flashsort"
	"github.com/flashsort-go/flashsort/bench"
)

func newVerifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check that a sort's output is fully sorted and uncorrupted",
		ArgsUsage: "<output-path>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page-size", Value: 4096},
			&cli.IntFlag{Name: "header-size", Value: 8},
			&cli.IntFlag{Name: "record-size", Value: 32},
			&cli.StringFlag{Name: "expect-checksum", Usage: "xxh3 checksum (hex) the file must match"},
		},
		Action: runVerify,
	}
}

func runVerify(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("verify: missing <output-path> argument")
	}
	path := c.Args().Get(0)
	pageSize := c.Int("page-size")
	headerSize := c.Int("header-size")
	recordSize := c.Int("record-size")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	archivePath := path + ".verify-archive"
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	defer os.Remove(archivePath)

	recordsPerPage := (pageSize - headerSize) / recordSize
	writer := bench.NewArchiveWriter(archiveFile, recordSize, uint(len(data)/recordSize+1))

	for base := 0; base+pageSize <= len(data); base += pageSize {
		count := int(binary.LittleEndian.Uint16(data[base+flashsort.BlockCountOffset : base+flashsort.BlockCountOffset+2]))
		for i := 0; i < count && i < recordsPerPage; i++ {
			off := base + headerSize + i*recordSize
			if err := writer.Write(data[off : off+recordSize]); err != nil {
				archiveFile.Close()
				return fmt.Errorf("verify: %w", err)
			}
		}
	}
	if err := writer.Flush(); err != nil {
		archiveFile.Close()
		return fmt.Errorf("verify: %w", err)
	}
	if err := archiveFile.Close(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	report, err := bench.ArchiveVerify(archivePath, recordSize)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !report.Monotonic {
		return fmt.Errorf("verify: %s is not sorted (%d records across %d blocks)", path, report.Records, report.Blocks)
	}

	checksum, err := bench.ChecksumFile(path)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if want := c.String("expect-checksum"); want != "" {
		gotHex := strconv.FormatUint(checksum, 16)
		if gotHex != want {
			return fmt.Errorf("verify: checksum mismatch: got %s, want %s", gotHex, want)
		}
	}

	fmt.Printf("flashsort: %s is sorted (%d records, %d blocks, min=%d max=%d, checksum=%x)\n",
		path, report.Records, report.Blocks, report.MinKey, report.MaxKey, checksum)
	return nil
}
