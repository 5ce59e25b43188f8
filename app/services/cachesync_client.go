package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// CacheSyncClient tells the recognition service to preload or evict the
// face-template set for a class. The cache is a performance optimization:
// the recognition service falls back to on-demand lookup on a miss, so
// callers log preload/evict failures rather than failing session state.
type CacheSyncClient struct {
	baseURL        string
	client         *http.Client
	retry          *RetryPolicy
	preloadTimeout time.Duration
	evictTimeout   time.Duration
	healthTimeout  time.Duration
}

func NewCacheSyncClient(baseURL string, retry *RetryPolicy, preloadTimeout, evictTimeout, healthTimeout time.Duration) *CacheSyncClient {
	return &CacheSyncClient{
		baseURL: baseURL,
		// Per-call deadlines come from contexts; the preload timeout bounds
		// the slowest call (large template downloads).
		client:         &http.Client{Timeout: preloadTimeout},
		retry:          retry,
		preloadTimeout: preloadTimeout,
		evictTimeout:   evictTimeout,
		healthTimeout:  healthTimeout,
	}
}

// Preload asks the service to warm its cache for the class. Returns the
// number of students the service reported loading.
func (c *CacheSyncClient) Preload(ctx context.Context, classID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.preloadTimeout)
	defer cancel()

	var result models.CacheSyncResponse
	err := c.retry.Do(ctx, "cache preload", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/database/sync", map[string]string{"classId": classID}, &result)
	})
	if err != nil {
		return 0, errors.Wrapf(ErrExternalService, "preload cache for class %s: %v", classID, err)
	}
	log.Printf("Preloaded recognition cache for class %s (%d students)", classID, result.StudentCount)
	return result.StudentCount, nil
}

// Evict asks the service to drop its cached templates for the class.
func (c *CacheSyncClient) Evict(ctx context.Context, classID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.evictTimeout)
	defer cancel()

	var result models.CacheSyncResponse
	err := c.retry.Do(ctx, "cache evict", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/database/cleanup", map[string]string{"classId": classID}, &result)
	})
	if err != nil {
		return errors.Wrapf(ErrExternalService, "evict cache for class %s: %v", classID, err)
	}
	log.Printf("Evicted recognition cache for class %s", classID)
	return nil
}

// Health probes the recognition service. A non-"healthy" status is an error.
func (c *CacheSyncClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(ErrExternalService, "health probe: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(ErrExternalService, "health probe: %v", err)
	}

	var health models.HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return errors.Wrapf(ErrExternalService, "health probe: %v", err)
	}
	if health.Status != "healthy" {
		return errors.Wrapf(ErrExternalService, "recognition service unhealthy: %s", health.Status)
	}
	return nil
}

func (c *CacheSyncClient) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("cache sync returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse cache sync response")
	}
	return nil
}
