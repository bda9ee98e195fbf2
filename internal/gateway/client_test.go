package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Timeout:         2 * time.Second,
		MaxRetries:      5,
		RetryDelay:      5 * time.Millisecond,
		RetryMultiplier: 2.0,
		MaxRetryDelay:   40 * time.Millisecond,
	}
}

func TestClient_Post_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, ServiceName, r.Header.Get("X-Service-Name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL), zerolog.Nop())
	resp, err := client.Post(context.Background(), "/register-vehicle/airplane", map[string]any{}, nil)
	require.NoError(t, err)

	var body struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.True(t, body.OK)
}

func TestClient_Post_EmptyBodyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL), zerolog.Nop())
	resp, err := client.Post(context.Background(), "/ack", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Body)

	// Decoding an empty body leaves the target untouched
	var body struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.False(t, body.OK)
}

func TestClient_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	var attempts []time.Time

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts = append(attempts, time.Now())
		n := len(attempts)
		mu.Unlock()
		if n <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"vehicleId":"AC1"}`))
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL), zerolog.Nop())
	resp, err := client.Post(context.Background(), "/register-vehicle/airplane", map[string]any{}, nil)
	require.NoError(t, err)

	var body struct {
		VehicleID string `json:"vehicleId"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, "AC1", body.VehicleID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, attempts, 4)

	// Delays between attempts strictly increase (5ms, 10ms, 20ms config)
	gap1 := attempts[1].Sub(attempts[0])
	gap2 := attempts[2].Sub(attempts[1])
	gap3 := attempts[3].Sub(attempts[2])
	assert.Greater(t, gap2, gap1)
	assert.Greater(t, gap3, gap2)
}

func TestClient_ClientErrorNeverRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		http.Error(w, "no such route", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL), zerolog.Nop())
	_, err := client.Get(context.Background(), "/missing", nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts)
}

func TestClient_TooManyRequestsRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL), zerolog.Nop())
	_, err := client.Get(context.Background(), "/throttled", nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestClient_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testClientConfig(srv.URL)
	cfg.MaxRetries = 2
	client := NewClient(cfg, zerolog.Nop())

	_, err := client.Get(context.Background(), "/down", nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestClient_UnlimitedRetriesStopOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig(srv.URL)
	cfg.MaxRetries = 0 // retry forever
	client := NewClient(cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Get(ctx, "/down", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_PerRequestHeaderOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL), zerolog.Nop())
	_, err := client.Get(context.Background(), "/", &RequestOptions{
		Headers: map[string]string{"X-Request-Id": "abc"},
	})
	require.NoError(t, err)
}

func TestGroundControlGateway_RegisterVehicle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register-vehicle/airplane", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"vehicleId":"AC1","garrageNodeId":"node-7","serviceSpots":{"fuel":"spot-1"}}`))
	}))
	defer srv.Close()

	gw := NewGroundControlGateway(testClientConfig(srv.URL), zerolog.Nop())
	resp, err := gw.RegisterVehicle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AC1", resp.VehicleID)
	assert.Equal(t, "node-7", resp.GarrageNodeID)
	assert.NotEmpty(t, resp.ServiceSpots)
}

func TestOrchestratorGateway_ReportLanding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AC1/landing", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "node-7", body["landing_point"])

		_, _ = w.Write([]byte(`{"status":"acknowledged"}`))
	}))
	defer srv.Close()

	gw := NewOrchestratorGateway(testClientConfig(srv.URL), zerolog.Nop())
	ack, err := gw.ReportLanding(context.Background(), "AC1", "node-7")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"acknowledged"}`, string(ack))
}
