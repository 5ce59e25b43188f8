package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheSyncClient(baseURL string) *CacheSyncClient {
	return NewCacheSyncClient(baseURL, testRetry(), 5*time.Second, 5*time.Second, time.Second)
}

func TestPreloadSendsClassID(t *testing.T) {
	var gotPayload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/database/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"success":true,"message":"synced","student_count":42,"class_id":"class-1"}`))
	}))
	defer server.Close()

	count, err := newCacheSyncClient(server.URL).Preload(context.Background(), "class-1")

	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.Equal(t, map[string]string{"classId": "class-1"}, gotPayload)
}

func TestEvictSendsClassID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true,"message":"cleaned"}`))
	}))
	defer server.Close()

	err := newCacheSyncClient(server.URL).Evict(context.Background(), "class-1")

	require.NoError(t, err)
	assert.Equal(t, "/api/database/cleanup", gotPath)
}

func TestPreloadWrapsExhaustedRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newCacheSyncClient(server.URL).Preload(context.Background(), "class-1")

	assert.ErrorIs(t, err, ErrExternalService)
	assert.Equal(t, 3, calls)
}

func TestHealthHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","service":"Face Recognition API"}`))
	}))
	defer server.Close()

	assert.NoError(t, newCacheSyncClient(server.URL).Health(context.Background()))
}

func TestHealthUnhealthyStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer server.Close()

	err := newCacheSyncClient(server.URL).Health(context.Background())
	assert.ErrorIs(t, err, ErrExternalService)
}
