package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type esRequest struct {
	method string
	path   string
	body   map[string]any
}

func fakeES(t *testing.T, status int) (*elasticsearch.Client, func() []esRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []esRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		requests = append(requests, esRequest{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return client, func() []esRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]esRequest(nil), requests...)
	}
}

func TestESMirror_IndexesByEventID(t *testing.T) {
	client, requests := fakeES(t, http.StatusCreated)
	mirror := NewESMirror(client, "docvault-access-logs", 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mirror.Run(ctx)

	require.NoError(t, mirror.Mirror(ctx, models.AccessLog{
		EventID:    "evt-42",
		DocumentID: 42,
		Action:     models.ActionView,
		CreatedAt:  fixedNow,
	}))

	require.Eventually(t, func() bool { return len(requests()) == 1 }, 2*time.Second, 10*time.Millisecond)
	req := requests()[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/docvault-access-logs/_doc/evt-42", req.path)
	assert.Equal(t, "VIEW", req.body["action"])
	assert.Equal(t, float64(42), req.body["document_id"])
	assert.NotContains(t, req.body, "user_id")
}

func TestESMirror_CountsIndexErrors(t *testing.T) {
	client, requests := fakeES(t, http.StatusInternalServerError)
	m := metrics.NewMetrics()
	mirror := NewESMirror(client, "idx", 8, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mirror.Run(ctx)

	require.NoError(t, mirror.Mirror(ctx, models.AccessLog{EventID: "e", DocumentID: 1, Action: models.ActionView}))
	require.Eventually(t, func() bool {
		return len(requests()) >= 1 && testutil.ToFloat64(m.AuditMirrorFailures()) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestESMirror_NeverBlocksWhenFull(t *testing.T) {
	client, _ := fakeES(t, http.StatusCreated)
	mirror := NewESMirror(client, "idx", 1, nil)

	require.NoError(t, mirror.Mirror(context.Background(), models.AccessLog{EventID: "a"}))
	assert.ErrorIs(t, mirror.Mirror(context.Background(), models.AccessLog{EventID: "b"}), ErrMirrorQueueFull)
}
