package flashsort

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildInput lays out len(pagesKeys) fixed-size pages on disk. Page i
// carries the keys in pagesKeys[i] at its leading record slots (8-byte
// little-endian signed, record bytes beyond the key left zero); any
// record slot at or beyond numRecords is never read by the engine and is
// left zero. Returns the opened file (caller must Close) and the derived
// Params.
func buildInput(t *testing.T, pageSize, headerSize, recordSize int, pagesKeys [][]int64, numRecords int) (*os.File, Params) {
	t.Helper()

	buf := make([]byte, pageSize*len(pagesKeys))
	recordsPerPage := (pageSize - headerSize) / recordSize

	for p, keys := range pagesKeys {
		if len(keys) > recordsPerPage {
			t.Fatalf("page %d has %d keys, only %d slots available", p, len(keys), recordsPerPage)
		}
		base := p*pageSize + headerSize
		for slot, key := range keys {
			off := base + slot*recordSize
			binary.LittleEndian.PutUint64(buf[off:off+KeyWidth], uint64(key))
		}
	}

	path := filepath.Join(t.TempDir(), "input.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening fixture: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	params := Params{
		PageSize:   pageSize,
		HeaderSize: headerSize,
		RecordSize: recordSize,
		NumPages:   len(pagesKeys),
		NumRecords: numRecords,
	}
	return f, params
}

// readAllKeys drives an already-constructed Engine to exhaustion and
// returns the emitted keys in order.
func readAllKeys(t *testing.T, e *Engine, recordSize int) []int64 {
	t.Helper()

	var got []int64
	tuple := make([]byte, recordSize)
	for {
		ok, err := e.Next(tuple)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, int64(binary.LittleEndian.Uint64(tuple[0:KeyWidth])))
	}
	return got
}
