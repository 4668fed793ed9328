package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client reads a user's owned and collaborated projects from the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client for the given backend base URL. A zero timeout leaves
// requests unbounded except by the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default(),
	}
}

// NewWithHTTPClient creates a Client that sends requests through hc (for testing).
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL, 0)
	c.httpClient = hc
	return c
}

// Fetch issues a single GET for subjectUserID. The credential is sent as a
// bearer token when non-empty; otherwise the request is unauthenticated and
// the backend decides access.
//
// Every failure is returned as *ErrorInfo.
func (c *Client) Fetch(ctx context.Context, subjectUserID, credential string) (ProfileProjects, error) {
	if strings.TrimSpace(subjectUserID) == "" {
		return ProfileProjects{}, newError(KindInvalidInput, 0, "A user id is required", nil)
	}

	endpoint := c.baseURL + "/api/project/user-projects/" + url.PathEscape(subjectUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ProfileProjects{}, newError(KindNetwork, 0, "", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("projects: request failed", "subject", subjectUserID, "error", err)
		return ProfileProjects{}, newError(KindNetwork, 0, "", fmt.Errorf("requesting projects: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Debug("projects: response",
		"subject", subjectUserID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	if err != nil {
		return ProfileProjects{}, newError(KindNetwork, resp.StatusCode, "", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ProfileProjects{}, serviceError(resp.StatusCode, body)
	}

	return decodeProjects(resp.StatusCode, body)
}

func serviceError(status int, body []byte) *ErrorInfo {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && strings.TrimSpace(eb.Message) != "" {
		return newError(KindService, status, eb.Message, fmt.Errorf("unexpected status %d", status))
	}
	return newError(KindService, status, "", fmt.Errorf("unexpected status %d: %s", status, truncateForLog(body)))
}

func decodeProjects(status int, body []byte) (ProfileProjects, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ProfileProjects{}, newError(KindMalformed, status, "", errors.New("response body is not a JSON object"))
	}

	var w wireResponse
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return ProfileProjects{}, newError(KindMalformed, status, "", fmt.Errorf("decoding projects: %w", err))
	}
	return normalize(w), nil
}

func truncateForLog(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
