package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"

	"predictd/pkg/types"
)

type fakeService struct {
	models    []types.Model
	ready     bool
	output    string
	inferErr  error
	reloadErr error
	reloadFn  func(ctx context.Context) error
	lastInput string
	reloads   atomic.Int32
}

func (f *fakeService) ListModels() []types.Model { return f.models }

func (f *fakeService) Status() types.StatusResponse {
	state := "acquiring_model"
	if f.ready {
		state = "ready"
	}
	return types.StatusResponse{SessionID: "sid", State: state, ModelID: "Rice-Stock", EngineLoaded: f.ready}
}

func (f *fakeService) ModelID() string { return "Rice-Stock" }

func (f *fakeService) Infer(ctx context.Context, input string) (string, error) {
	f.lastInput = input
	if f.inferErr != nil {
		return "", f.inferErr
	}
	return f.output, nil
}

func (f *fakeService) Ready() bool { return f.ready }

func (f *fakeService) Reload(ctx context.Context) error {
	f.reloads.Add(1)
	if f.reloadFn != nil {
		return f.reloadFn(ctx)
	}
	return f.reloadErr
}

func doJSON(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type statusErr struct{ code int }

func (e statusErr) Error() string   { return "custom" }
func (e statusErr) StatusCode() int { return e.code }
