package main

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// probeClient is used for reachability checks only; project fetches go
// through projects.Client.
var probeClient = &http.Client{Timeout: 2 * time.Second}

// probeBackend reports whether the backend answers at all. Any HTTP
// response counts as reachable since the health route is optional.
func probeBackend(ctx context.Context, baseURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return "invalid URL"
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		return "unreachable"
	}
	resp.Body.Close()
	return fmt.Sprintf("reachable, HTTP %d", resp.StatusCode)
}
