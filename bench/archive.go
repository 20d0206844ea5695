// Archive is an indexed, bloom-backed container for a flashsort output
// file: CRC-checked data blocks, a sparse index over them, a bloom filter
// of every key seen, and a fixed footer. The CLI's verify subcommand
// builds one from a sort's output to get cheap, after-the-fact assurance:
// the footer's CRC and min/max keys catch truncation or corruption, and
// the index lets ArchiveVerify check block-local ordering without
// re-reading the whole file through flashsort's own reader.
package bench

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
)

const defaultMaxDataBlockBytes = 4 * 1024

type archiveEntry struct {
	key    int64
	record []byte
}

type archiveDataBlock struct {
	entries []archiveEntry
}

type archiveIndexEntry struct {
	firstKey    int64
	blockOffset int64
	blockSize   uint32
}

// ArchiveWriter packs sorted fixed-width records into CRC-checked data
// blocks, a sparse index over those blocks, a bloom filter of every key
// seen, and a fixed footer, written in that order, once, to an io.WriteSeeker.
type ArchiveWriter struct {
	w          io.WriteSeeker
	recordSize int

	maxBlockBytes int
	curBlock      archiveDataBlock
	curBlockBytes int

	index  []archiveIndexEntry
	bloom  *bloom.BloomFilter
	minKey int64
	maxKey int64
	hasKey bool
}

// NewArchiveWriter creates an archive writer over w. expectedKeys sizes the
// embedded bloom filter.
func NewArchiveWriter(w io.WriteSeeker, recordSize int, expectedKeys uint) *ArchiveWriter {
	if expectedKeys == 0 {
		expectedKeys = 1
	}
	return &ArchiveWriter{
		w:             w,
		recordSize:    recordSize,
		maxBlockBytes: defaultMaxDataBlockBytes,
		bloom:         bloom.NewWithEstimates(expectedKeys, 0.01),
	}
}

// Write appends one record (recordSize bytes, key at offset 0) to the
// archive, flushing the current data block first if record would overflow
// it.
func (a *ArchiveWriter) Write(record []byte) error {
	if len(record) != a.recordSize {
		return fmt.Errorf("bench: record is %d bytes, want %d", len(record), a.recordSize)
	}
	key := int64(binary.LittleEndian.Uint64(record[:8]))

	if !a.hasKey || key < a.minKey {
		a.minKey = key
	}
	if !a.hasKey || key > a.maxKey {
		a.maxKey = key
	}
	a.hasKey = true

	if a.curBlockBytes+a.recordSize > a.maxBlockBytes && len(a.curBlock.entries) > 0 {
		if err := a.flushBlock(); err != nil {
			return err
		}
	}

	rec := append([]byte(nil), record...)
	a.curBlock.entries = append(a.curBlock.entries, archiveEntry{key: key, record: rec})
	a.curBlockBytes += a.recordSize

	var keyBuf [8]byte
	binary.LittleEndian.PutUint64(keyBuf[:], uint64(key))
	a.bloom.Add(keyBuf[:])

	return nil
}

func (a *ArchiveWriter) flushBlock() error {
	blockStart, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("bench: seeking block start: %w", err)
	}

	if err := binary.Write(a.w, binary.LittleEndian, uint32(0)); err != nil {
		return fmt.Errorf("bench: writing block size placeholder: %w", err)
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(a.w, crc)
	if err := binary.Write(mw, binary.LittleEndian, uint32(len(a.curBlock.entries))); err != nil {
		return fmt.Errorf("bench: writing block entry count: %w", err)
	}
	for _, e := range a.curBlock.entries {
		if _, err := mw.Write(e.record); err != nil {
			return fmt.Errorf("bench: writing block entry: %w", err)
		}
	}
	if err := binary.Write(a.w, binary.LittleEndian, crc.Sum32()); err != nil {
		return fmt.Errorf("bench: writing block crc: %w", err)
	}

	blockEnd, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("bench: seeking block end: %w", err)
	}
	payloadSize := uint32(blockEnd - blockStart - 4)

	if _, err := a.w.Seek(blockStart, io.SeekStart); err != nil {
		return fmt.Errorf("bench: seeking back to patch block size: %w", err)
	}
	if err := binary.Write(a.w, binary.LittleEndian, payloadSize); err != nil {
		return fmt.Errorf("bench: patching block size: %w", err)
	}
	if _, err := a.w.Seek(blockEnd, io.SeekStart); err != nil {
		return fmt.Errorf("bench: seeking past patched block: %w", err)
	}

	a.index = append(a.index, archiveIndexEntry{
		firstKey:    a.curBlock.entries[0].key,
		blockOffset: blockStart,
		blockSize:   payloadSize + 4,
	})
	a.curBlock = archiveDataBlock{}
	a.curBlockBytes = 0

	return nil
}

func (a *ArchiveWriter) writeIndexBlock() (offset int64, size uint32, err error) {
	start, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, fmt.Errorf("bench: seeking index start: %w", err)
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(a.w, crc)
	if err := binary.Write(mw, binary.LittleEndian, uint32(len(a.index))); err != nil {
		return 0, 0, err
	}
	for _, e := range a.index {
		if err := binary.Write(mw, binary.LittleEndian, e.firstKey); err != nil {
			return 0, 0, err
		}
		if err := binary.Write(mw, binary.LittleEndian, e.blockOffset); err != nil {
			return 0, 0, err
		}
		if err := binary.Write(mw, binary.LittleEndian, e.blockSize); err != nil {
			return 0, 0, err
		}
	}
	if err := binary.Write(a.w, binary.LittleEndian, crc.Sum32()); err != nil {
		return 0, 0, err
	}

	end, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	return start, uint32(end - start), nil
}

func (a *ArchiveWriter) writeBloomBlock() (offset int64, size uint32, err error) {
	start, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, fmt.Errorf("bench: seeking bloom start: %w", err)
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(a.w, crc)
	if err := binary.Write(mw, binary.LittleEndian, uint32(a.bloom.K())); err != nil {
		return 0, 0, err
	}
	if err := binary.Write(mw, binary.LittleEndian, uint32(a.bloom.Cap())); err != nil {
		return 0, 0, err
	}
	if _, err := a.bloom.WriteTo(mw); err != nil {
		return 0, 0, fmt.Errorf("bench: writing bloom bits: %w", err)
	}
	if err := binary.Write(a.w, binary.LittleEndian, crc.Sum32()); err != nil {
		return 0, 0, err
	}

	end, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	return start, uint32(end - start), nil
}

// archiveFooterSize is fixed: indexOffset(8) indexSize(4) bloomOffset(8)
// bloomSize(4) minKey(8) maxKey(8) crc(4).
const archiveFooterSize = 8 + 4 + 8 + 4 + 8 + 8 + 4

// Flush finalizes the archive: any partial data block, the index block, the
// bloom filter, and the fixed footer, in that order.
func (a *ArchiveWriter) Flush() error {
	if len(a.curBlock.entries) > 0 {
		if err := a.flushBlock(); err != nil {
			return err
		}
	}

	indexOffset, indexSize, err := a.writeIndexBlock()
	if err != nil {
		return err
	}
	bloomOffset, bloomSize, err := a.writeBloomBlock()
	if err != nil {
		return err
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(a.w, crc)
	for _, v := range []any{indexOffset, uint32(indexSize), bloomOffset, uint32(bloomSize), a.minKey, a.maxKey} {
		if err := binary.Write(mw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("bench: writing footer: %w", err)
		}
	}
	return binary.Write(a.w, binary.LittleEndian, crc.Sum32())
}
