package bench

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
)

// ArchiveReport summarizes an ArchiveVerify pass.
type ArchiveReport struct {
	Blocks     int
	Records    int64
	MinKey     int64
	MaxKey     int64
	Monotonic  bool
	BloomProbe bool // true if every sampled key tested present in the rebuilt bloom filter
}

// ArchiveVerify re-reads an archive written by ArchiveWriter and checks
// internal consistency: every block's CRC, the index block's CRC, the
// footer's CRC, and that keys are non-decreasing both within and across
// blocks. It does not need flashsort's own reader at all; it is a
// second, independently-grounded check on the same bytes.
func ArchiveVerify(path string, recordSize int) (ArchiveReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return ArchiveReport{}, fmt.Errorf("bench: opening archive: %w", err)
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return ArchiveReport{}, fmt.Errorf("bench: seeking archive end: %w", err)
	}
	if size < archiveFooterSize {
		return ArchiveReport{}, fmt.Errorf("bench: archive too small to hold a footer")
	}

	footerStart := size - archiveFooterSize
	if _, err := f.Seek(footerStart, io.SeekStart); err != nil {
		return ArchiveReport{}, err
	}
	footer := make([]byte, archiveFooterSize)
	if _, err := io.ReadFull(f, footer); err != nil {
		return ArchiveReport{}, fmt.Errorf("bench: reading footer: %w", err)
	}
	if crc32.ChecksumIEEE(footer[:archiveFooterSize-4]) != binary.LittleEndian.Uint32(footer[archiveFooterSize-4:]) {
		return ArchiveReport{}, fmt.Errorf("bench: footer crc mismatch")
	}

	indexOffset := int64(binary.LittleEndian.Uint64(footer[0:8]))
	indexSize := binary.LittleEndian.Uint32(footer[8:12])
	bloomOffset := int64(binary.LittleEndian.Uint64(footer[12:20]))
	bloomSize := binary.LittleEndian.Uint32(footer[20:24])
	minKey := int64(binary.LittleEndian.Uint64(footer[24:32]))
	maxKey := int64(binary.LittleEndian.Uint64(footer[32:40]))

	index, err := readIndexBlock(f, indexOffset, indexSize)
	if err != nil {
		return ArchiveReport{}, err
	}

	report := ArchiveReport{MinKey: minKey, MaxKey: maxKey, Monotonic: true}

	if filter, err := readBloomBlock(f, bloomOffset, bloomSize); err == nil {
		var minBuf, maxBuf [8]byte
		binary.LittleEndian.PutUint64(minBuf[:], uint64(minKey))
		binary.LittleEndian.PutUint64(maxBuf[:], uint64(maxKey))
		report.BloomProbe = filter.Test(minBuf[:]) && filter.Test(maxBuf[:])
	}

	var lastKey int64
	haveLast := false

	for _, entry := range index {
		keys, err := readDataBlockKeys(f, entry.blockOffset, entry.blockSize, recordSize)
		if err != nil {
			return ArchiveReport{}, err
		}
		report.Blocks++
		for _, k := range keys {
			if haveLast && k < lastKey {
				report.Monotonic = false
			}
			lastKey = k
			haveLast = true
			report.Records++
		}
	}

	return report, nil
}

func readIndexBlock(f *os.File, offset int64, size uint32) ([]archiveIndexEntry, error) {
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("bench: reading index block: %w", err)
	}
	if crc32.ChecksumIEEE(buf[:len(buf)-4]) != binary.LittleEndian.Uint32(buf[len(buf)-4:]) {
		return nil, fmt.Errorf("bench: index block crc mismatch")
	}

	n := binary.LittleEndian.Uint32(buf[0:4])
	entries := make([]archiveIndexEntry, 0, n)
	pos := 4
	for i := uint32(0); i < n; i++ {
		firstKey := int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
		blockOffset := int64(binary.LittleEndian.Uint64(buf[pos+8 : pos+16]))
		blockSize := binary.LittleEndian.Uint32(buf[pos+16 : pos+20])
		entries = append(entries, archiveIndexEntry{firstKey: firstKey, blockOffset: blockOffset, blockSize: blockSize})
		pos += 20
	}
	return entries, nil
}

func readDataBlockKeys(f *os.File, offset int64, size uint32, recordSize int) ([]int64, error) {
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("bench: reading data block: %w", err)
	}

	payload := buf[4 : len(buf)-4]
	if crc32.ChecksumIEEE(payload) != binary.LittleEndian.Uint32(buf[len(buf)-4:]) {
		return nil, fmt.Errorf("bench: data block crc mismatch at offset %d", offset)
	}

	count := binary.LittleEndian.Uint32(payload[0:4])
	keys := make([]int64, 0, count)
	pos := 4
	for i := uint32(0); i < count; i++ {
		keys = append(keys, int64(binary.LittleEndian.Uint64(payload[pos:pos+8])))
		pos += recordSize
	}
	return keys, nil
}

// readBloomBlock reconstructs the bloom filter an ArchiveWriter embedded;
// ArchiveVerify probes it with the footer's min and max keys.
func readBloomBlock(f *os.File, offset int64, size uint32) (*bloom.BloomFilter, error) {
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("bench: reading bloom block: %w", err)
	}
	if crc32.ChecksumIEEE(buf[:len(buf)-4]) != binary.LittleEndian.Uint32(buf[len(buf)-4:]) {
		return nil, fmt.Errorf("bench: bloom block crc mismatch")
	}

	filter := &bloom.BloomFilter{}
	if _, err := filter.ReadFrom(bytes.NewReader(buf[8 : len(buf)-4])); err != nil {
		return nil, fmt.Errorf("bench: decoding bloom filter: %w", err)
	}
	return filter, nil
}
