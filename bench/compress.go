package bench

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// CompressFile gzips the file at srcPath into dstPath, for archiving a bench
// dataset after it's been generated and sorted.
func CompressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("bench: opening %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("bench: creating %s: %w", dstPath, err)
	}
	defer dst.Close()

	gw := gzip.NewWriter(dst)
	if _, err := io.Copy(gw, src); err != nil {
		gw.Close()
		return fmt.Errorf("bench: compressing %s: %w", srcPath, err)
	}
	return gw.Close()
}

// DecompressFile reverses CompressFile.
func DecompressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("bench: opening %s: %w", srcPath, err)
	}
	defer src.Close()

	gr, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("bench: opening gzip stream %s: %w", srcPath, err)
	}
	defer gr.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("bench: creating %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, gr); err != nil {
		return fmt.Errorf("bench: decompressing %s: %w", srcPath, err)
	}
	return nil
}
