// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, isReady ReadinessChecker) *Server {
	t.Helper()

	s := NewServer("127.0.0.1:0", isReady)
	_, err := s.Start()
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec // test-local address
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Liveness(t *testing.T) {
	s := startServer(t, nil)

	status, body := get(t, "http://"+s.Addr()+"/healthz/liveness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)
}

func TestServer_Readiness(t *testing.T) {
	var ready atomic.Bool
	s := startServer(t, ready.Load)

	status, body := get(t, "http://"+s.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not ready\n", body)

	ready.Store(true)
	status, body = get(t, "http://"+s.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)
}

func TestServer_NilReadinessCheckerIsReady(t *testing.T) {
	s := startServer(t, nil)

	status, _ := get(t, "http://"+s.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_Metrics(t *testing.T) {
	s := startServer(t, nil)

	status, body := get(t, "http://"+s.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_DoubleStart(t *testing.T) {
	s := startServer(t, nil)

	_, err := s.Start()
	assert.Error(t, err)
}

func TestServer_StopIdempotent(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	errCh, err := s.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))

	// Graceful stop closes the error channel without sending.
	select {
	case serveErr, ok := <-errCh:
		assert.False(t, ok, "unexpected server error: %v", serveErr)
	case <-time.After(5 * time.Second):
		t.Fatal("error channel not closed after stop")
	}
}

func TestServer_BadAddr(t *testing.T) {
	s := NewServer("256.256.256.256:99999", nil)
	_, err := s.Start()
	assert.Error(t, err)
}
