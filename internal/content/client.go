// Package content provides the client for the Moodniko content API,
// the upstream catalog of mood-tagged recommendations.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/moodniko/niko-agent/internal/httpkit"
)

// DefaultBaseURL is the hosted Moodniko backend.
const DefaultBaseURL = "https://moodniko-backend.onrender.com"

// Item is a single catalog entry. The agent never mutates items; it
// only tracks which IDs have been shown.
type Item struct {
	ID          int    `json:"id"`
	ExternalID  string `json:"externalId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Type        string `json:"type"`
	MoodTag     string `json:"moodtag"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Client fetches catalog items by mood and content type.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a content API client. An empty baseURL selects the
// hosted backend. The free-tier host cold-starts, so the client retries
// transient connect failures.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		logger:  logger.With("component", "content"),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(timeout),
			httpkit.WithRetry(2, 500*time.Millisecond),
			httpkit.WithLogger(logger),
		),
	}
}

// Fetch returns all catalog items matching mood and apiType, in the
// order the API serves them. apiType must already be normalized (see
// mood.NormalizeContentType). A non-2xx status is an error.
func (c *Client) Fetch(ctx context.Context, mood, apiType string) ([]Item, error) {
	q := url.Values{}
	q.Set("mood", mood)
	q.Set("type", apiType)
	reqURL := c.baseURL + "/contents?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch contents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("content API returned %d: %s", resp.StatusCode, body)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode contents: %w", err)
	}

	c.logger.Debug("fetched contents",
		"mood", mood,
		"type", apiType,
		"items", len(items),
		"duration", time.Since(start),
	)

	return items, nil
}

// Ping checks whether the content API is reachable. Any HTTP response
// counts as reachable; a cold-started free-tier host may answer the
// root path with an error page before the app is warm.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping content API: %w", err)
	}
	httpkit.DrainAndClose(resp.Body, 4096)
	return nil
}
