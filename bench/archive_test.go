package bench

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

const archiveTestRecordSize = 8

func makeArchiveRecord(key int64) []byte {
	rec := make([]byte, archiveTestRecordSize)
	binary.LittleEndian.PutUint64(rec, uint64(key))
	return rec
}

func TestArchiveRoundTripVerifiesSortedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive file: %v", err)
	}

	w := NewArchiveWriter(f, archiveTestRecordSize, 100)
	keys := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	for _, k := range keys {
		if err := w.Write(makeArchiveRecord(k)); err != nil {
			t.Fatalf("Write(%d): %v", k, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}

	report, err := ArchiveVerify(path, archiveTestRecordSize)
	if err != nil {
		t.Fatalf("ArchiveVerify: %v", err)
	}
	if !report.Monotonic {
		t.Fatalf("report.Monotonic = false for sorted input")
	}
	if report.Records != int64(len(keys)) {
		t.Fatalf("report.Records = %d, want %d", report.Records, len(keys))
	}
	if report.MinKey != 1 || report.MaxKey != 10 {
		t.Fatalf("report min/max = %d/%d, want 1/10", report.MinKey, report.MaxKey)
	}
	if !report.BloomProbe {
		t.Fatalf("report.BloomProbe = false, want true (min/max keys were written)")
	}
}

func TestArchiveVerifyDetectsOutOfOrderInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive file: %v", err)
	}

	w := NewArchiveWriter(f, archiveTestRecordSize, 100)
	for _, k := range []int64{5, 1, 9, 2} {
		if err := w.Write(makeArchiveRecord(k)); err != nil {
			t.Fatalf("Write(%d): %v", k, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}

	report, err := ArchiveVerify(path, archiveTestRecordSize)
	if err != nil {
		t.Fatalf("ArchiveVerify: %v", err)
	}
	if report.Monotonic {
		t.Fatalf("report.Monotonic = true for an out-of-order archive")
	}
}

func TestArchiveVerifyRejectsTamperedBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive file: %v", err)
	}

	w := NewArchiveWriter(f, archiveTestRecordSize, 100)
	for _, k := range []int64{1, 2, 3} {
		if err := w.Write(makeArchiveRecord(k)); err != nil {
			t.Fatalf("Write(%d): %v", k, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	data[8] ^= 0xFF // flip a byte inside the first data block's payload
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("rewriting archive: %v", err)
	}

	if _, err := ArchiveVerify(path, archiveTestRecordSize); err == nil {
		t.Fatalf("expected a crc mismatch error after tampering with the archive")
	}
}

func TestArchiveMultipleBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive file: %v", err)
	}

	w := NewArchiveWriter(f, archiveTestRecordSize, 2000)
	w.maxBlockBytes = 32 // force many small blocks

	n := 200
	for i := 0; i < n; i++ {
		if err := w.Write(makeArchiveRecord(int64(i))); err != nil {
			t.Fatalf("Write(%d): %v", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}

	report, err := ArchiveVerify(path, archiveTestRecordSize)
	if err != nil {
		t.Fatalf("ArchiveVerify: %v", err)
	}
	if report.Records != int64(n) {
		t.Fatalf("report.Records = %d, want %d", report.Records, n)
	}
	if report.Blocks < 2 {
		t.Fatalf("report.Blocks = %d, want several blocks given the small maxBlockBytes", report.Blocks)
	}
	if !report.Monotonic {
		t.Fatalf("report.Monotonic = false for ascending input")
	}
}
