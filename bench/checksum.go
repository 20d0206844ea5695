package bench

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// ChecksumFile hashes the whole file at path with xxh3, for confirming a
// sort's output bytes are unchanged when copied or archived.
func ChecksumFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("bench: opening %s: %w", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("bench: hashing %s: %w", path, err)
	}
	return h.Sum64(), nil
}
