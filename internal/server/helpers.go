package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WaitForHealthy polls baseURL's /health endpoint until the dealer answers
// 200 OK or ctx ends. On timeout the last failure is included in the error.
func WaitForHealthy(ctx context.Context, baseURL string) error {
	healthURL := baseURL + "/health"
	client := &http.Client{Timeout: 1 * time.Second}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var last error
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("health returned %s", resp.Status)
		}
		last = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("dealer not healthy at %s: %w (last: %v)", baseURL, ctx.Err(), last)
		case <-ticker.C:
		}
	}
}
