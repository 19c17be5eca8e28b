package modelsource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPFetcher downloads models with GET <baseURL>/<name>.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher builds a fetcher against baseURL. A zero timeout disables
// the client-level deadline; callers still bound requests with their context.
func NewHTTPFetcher(baseURL string, timeout time.Duration) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid model base url %q", baseURL)
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/octet-stream").
		SetTimeout(timeout)
	return &HTTPFetcher{client: client}, nil
}

func (h *HTTPFetcher) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/" + url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("fetch model %s: %w", name, err)
	}
	body := resp.RawBody()
	if resp.IsError() {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("fetch model %s: unexpected status %s", name, resp.Status())
	}
	if body == nil {
		return nil, fmt.Errorf("fetch model %s: empty response body", name)
	}
	return body, nil
}
