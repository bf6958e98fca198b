package vectorindex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

func newTestClient(t *testing.T, serverURL, healthInterval string) *Client {
	t.Helper()
	log, err := logger.NewLogger(&config.LoggingConfig{Level: "fatal", Format: "console"})
	require.NoError(t, err)
	return NewClient(&config.VectorIndexConfig{
		URL:            serverURL,
		HealthInterval: healthInterval,
		RequestTimeout: "2s",
	}, log)
}

func TestClientHealthVerdictCached(t *testing.T) {
	var probes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			probes.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "1m")
	ctx := context.Background()

	assert.True(t, client.IsAvailable(ctx))
	assert.True(t, client.IsAvailable(ctx))
	assert.Equal(t, int64(1), probes.Load())
}

func TestClientHealthProbeDoesNotBlockCallers(t *testing.T) {
	probeStarted := make(chan struct{}, 1)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			probeStarted <- struct{}{}
			<-release
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "1ms")
	ctx := context.Background()

	first := make(chan bool, 1)
	go func() { first <- client.IsAvailable(ctx) }()
	<-probeStarted

	// While the probe is held open, another caller must get the cached
	// verdict immediately instead of queueing behind the network call.
	second := make(chan bool, 1)
	go func() { second <- client.IsAvailable(ctx) }()
	select {
	case verdict := <-second:
		assert.False(t, verdict)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("caller waited on the in-flight health probe")
	}

	close(release)
	assert.True(t, <-first)
}

func TestClientErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/1":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "1m")
	ctx := context.Background()

	_, err := client.GetByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetByID(ctx, 2)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = client.Query(ctx, []float64{0.1}, 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}
