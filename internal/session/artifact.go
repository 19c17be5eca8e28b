package session

import "errors"

// ArtifactKind tags the representation of a model artifact.
type ArtifactKind int

const (
	ArtifactBuffer ArtifactKind = iota + 1
	ArtifactFile
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactBuffer:
		return "buffer"
	case ArtifactFile:
		return "file"
	default:
		return "unknown"
	}
}

// Artifact is a loaded model, either an in-memory buffer or a file reference.
// It is consumed by engine construction and released right after.
type Artifact struct {
	Kind   ArtifactKind
	Buffer []byte
	Path   string

	release func() error
}

// BufferArtifact wraps an in-memory model. release may be nil.
func BufferArtifact(b []byte, release func() error) Artifact {
	return Artifact{Kind: ArtifactBuffer, Buffer: b, release: release}
}

// FileArtifact references a model file on disk.
func FileArtifact(path string) Artifact {
	return Artifact{Kind: ArtifactFile, Path: path}
}

// Validate checks that the variant carries its payload.
func (a Artifact) Validate() error {
	switch a.Kind {
	case ArtifactBuffer:
		if len(a.Buffer) == 0 {
			return errors.New("empty model buffer")
		}
	case ArtifactFile:
		if a.Path == "" {
			return errors.New("empty model path")
		}
	default:
		return errors.New("unknown artifact kind")
	}
	return nil
}

// Release frees resources held by the artifact (e.g. a memory mapping).
func (a Artifact) Release() error {
	if a.release == nil {
		return nil
	}
	return a.release()
}
