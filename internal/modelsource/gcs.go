package modelsource

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"predictd/internal/common/fsutil"
)

// GCSFetcher reads models from a Cloud Storage bucket as objects named
// <prefix>/<name>.
type GCSFetcher struct {
	client *storage.Client
	Bucket string
	Prefix string
}

// NewGCSFetcher creates a storage client. An empty credentialsFile falls back
// to application default credentials.
func NewGCSFetcher(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSFetcher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		p, err := fsutil.ExpandHome(credentialsFile)
		if err != nil {
			return nil, err
		}
		if !fsutil.IsRegularFile(p) {
			return nil, fmt.Errorf("service account key not found at path: %s", p)
		}
		opts = append(opts, option.WithCredentialsFile(p))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSFetcher{client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (g *GCSFetcher) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj := objectName(g.Prefix, name)
	r, err := g.client.Bucket(g.Bucket).Object(obj).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", g.Bucket, obj, err)
	}
	return r, nil
}

// Close releases the underlying storage client.
func (g *GCSFetcher) Close() error { return g.client.Close() }

func objectName(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
