package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"predictd/internal/common/fsutil"
	"predictd/pkg/types"
)

// ModelExt is the file extension of bundled model assets.
const ModelExt = ".tflite"

// LoadDir scans a directory for *.tflite files and builds a registry from filenames.
// ID is the full filename (including extension); Name drops the extension; Path is absolute.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ModelExt) {
			continue
		}
		var size int64
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		models = append(models, types.Model{
			ID:        name,
			Name:      name[:len(name)-len(ModelExt)],
			Path:      filepath.Join(abs, name),
			SizeBytes: size,
		})
	}
	return models, nil
}

// Find returns the model whose ID or Name matches id.
func Find(models []types.Model, id string) (types.Model, bool) {
	for _, m := range models {
		if m.ID == id || m.Name == id {
			return m, true
		}
	}
	return types.Model{}, false
}

// Resolve locates a bundled asset by name inside dir.
func Resolve(dir, name string) (types.Model, error) {
	models, err := LoadDir(dir)
	if err != nil {
		return types.Model{}, err
	}
	m, ok := Find(models, name)
	if !ok {
		return types.Model{}, fmt.Errorf("asset %q not found in %s", name, dir)
	}
	return m, nil
}
