//go:build !unix

package modelsource

import (
	"fmt"
	"io"

	"predictd/internal/session"
)

// Load reads the asset region into memory.
func (l AssetLoader) Load(path string) (session.Artifact, error) {
	f, size, err := statOpen(path)
	if err != nil {
		return session.Artifact{}, err
	}
	defer f.Close()

	off, length, err := l.region(size)
	if err != nil {
		return session.Artifact{}, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(f, off, length), buf); err != nil {
		return session.Artifact{}, fmt.Errorf("read asset: %w", err)
	}
	return session.BufferArtifact(buf, nil), nil
}
