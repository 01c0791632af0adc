package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/imarro/subwaydex/internal/domain/model"
)

// client wraps http.Client for talking to a running server.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// checkHealth verifies the server is up. Any 200 counts as healthy; the
// endpoint serves Prometheus metrics.
func (c *client) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// filterResponse mirrors the server's POST /pools/{pool_id}/filter body.
type filterResponse struct {
	PoolID                     string `json:"pool_id"`
	SeenGlobalIDs              []int  `json:"seen_global_ids"`
	NumPossibleTeams           int    `json:"num_possible_teams"`
	PossibleRemainingGlobalIDs []int  `json:"possible_remaining_global_ids"`
}

// filterPool replays an observation against the server.
func (c *client) filterPool(ctx context.Context, poolID string, seen model.Observation) (filterResponse, error) {
	ids := make([]int, 0, len(seen))
	for _, id := range seen {
		ids = append(ids, int(id))
	}
	body, err := json.Marshal(map[string][]int{"seen_global_ids": ids})
	if err != nil {
		return filterResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.baseURL + "/pools/" + poolID + "/filter"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return filterResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return filterResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return filterResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return filterResponse{}, fmt.Errorf("filter returned status %d: %s", resp.StatusCode, raw)
	}

	var out filterResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return filterResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
