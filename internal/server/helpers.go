package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/quartz"
)

// WaitForHealthy polls baseURL/health until it answers 200 OK or ctx ends.
// baseURL is the server root, e.g. "http://localhost:8080".
func WaitForHealthy(ctx context.Context, clock quartz.Clock, baseURL string) error {
	if clock == nil {
		clock = quartz.NewReal()
	}
	healthURL := strings.TrimRight(baseURL, "/") + "/health"
	client := &http.Client{Timeout: time.Second}

	check := func() bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}
	if check() {
		return nil
	}

	ticker := clock.NewTicker(100*time.Millisecond, "health")
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if check() {
				return nil
			}
		}
	}
}
