package httpapi

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsRoutePattern(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/healthz", http.MethodGet, "200"))
	doJSON(mux, http.MethodGet, "/healthz", "")
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/healthz", http.MethodGet, "200"))
	assert.Equal(t, before+1, after)
}

func TestMetrics_Rejections(t *testing.T) {
	mux := NewMux(&fakeService{ready: false})
	before := testutil.ToFloat64(rejectionsTotal.WithLabelValues("not_ready"))
	doJSON(mux, http.MethodPost, "/predict", `{"input":"1"}`)
	assert.Equal(t, before+1, testutil.ToFloat64(rejectionsTotal.WithLabelValues("not_ready")))

	incRejection("")
	assert.GreaterOrEqual(t, testutil.ToFloat64(rejectionsTotal.WithLabelValues("unspecified")), 1.0)
}

func TestMetrics_Endpoint(t *testing.T) {
	mux := NewMux(&fakeService{})
	doJSON(mux, http.MethodGet, "/healthz", "")
	rr := doJSON(mux, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "predictd_http_requests_total")
}
