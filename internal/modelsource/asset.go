package modelsource

import (
	"fmt"
	"os"
)

// AssetLoader implements session.AssetLoader. It exposes the region
// [Offset, Offset+Length) of the asset file as a read-only buffer; a zero
// Length extends the region to the end of the file.
type AssetLoader struct {
	Offset int64
	Length int64
}

// region validates the configured window against the file size.
func (l AssetLoader) region(size int64) (off, length int64, err error) {
	off, length = l.Offset, l.Length
	if off < 0 || length < 0 {
		return 0, 0, fmt.Errorf("negative asset region (offset %d, length %d)", off, length)
	}
	if length == 0 {
		length = size - off
	}
	if length <= 0 || off > size || length > size-off {
		return 0, 0, fmt.Errorf("asset region (offset %d, length %d) out of bounds for %d-byte file", off, length, size)
	}
	return off, length, nil
}

func statOpen(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open asset: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat asset: %w", err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, 0, fmt.Errorf("asset %s is not a regular file", path)
	}
	return f, fi.Size(), nil
}
