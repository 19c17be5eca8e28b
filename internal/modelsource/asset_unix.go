//go:build unix

package modelsource

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"predictd/internal/session"
)

// Load maps the asset region read-only. Releasing the artifact unmaps it.
func (l AssetLoader) Load(path string) (session.Artifact, error) {
	f, size, err := statOpen(path)
	if err != nil {
		return session.Artifact{}, err
	}
	// The mapping stays valid after the descriptor is closed.
	defer f.Close()

	off, length, err := l.region(size)
	if err != nil {
		return session.Artifact{}, err
	}
	page := int64(unix.Getpagesize())
	aligned := off - off%page
	delta := off - aligned

	data, err := unix.Mmap(int(f.Fd()), aligned, int(delta+length), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return session.Artifact{}, fmt.Errorf("mmap asset: %w", err)
	}
	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() { err = unix.Munmap(data) })
		return err
	}
	return session.BufferArtifact(data[delta:delta+length:delta+length], release), nil
}
