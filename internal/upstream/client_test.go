package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bellebook/catalog/internal/diag"
	"github.com/bellebook/catalog/pkg/logging"
)

func newSpy() (*diag.Reporter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return diag.NewReporter(logging.FromZap(zap.New(core))), logs
}

func TestFetchServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services", r.URL.Path)
		assert.Equal(t, "Bearer secret123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "ownerId": "7"}, {"id": 2, "ownerId": 7}]`))
	}))
	defer srv.Close()

	reporter, logs := newSpy()
	c := NewClient(srv.URL, "secret123", reporter)

	raw, err := c.FetchServices(context.Background())
	require.NoError(t, err)

	items, ok := raw.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
	assert.Zero(t, logs.Len())

	// id type drift survives the decode untouched
	first := items[0].(map[string]any)
	second := items[1].(map[string]any)
	assert.IsType(t, "", first["ownerId"])
	assert.NotEqual(t, first["ownerId"], second["ownerId"])
}

func TestFetchServicesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	reporter, logs := newSpy()
	c := NewClient(srv.URL, "", reporter)

	_, err := c.FetchServices(context.Background())
	require.Error(t, err)

	events := logs.FilterField(zap.String("kind", string(diag.KindAPI)))
	require.Equal(t, 1, events.Len())
	assert.Contains(t, events.All()[0].ContextMap()["details"], "database unavailable")
}

func TestFetchServicesUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [`))
	}))
	defer srv.Close()

	reporter, logs := newSpy()
	c := NewClient(srv.URL, "", reporter)

	_, err := c.FetchServices(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterField(zap.String("kind", string(diag.KindAPI))).Len())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	assert.NoError(t, c.Health(context.Background()))

	bad := NewClient(srv.URL+"/missing", "", nil)
	assert.Error(t, bad.Health(context.Background()))
}
