package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// UsageFetcher retrieves quota data from the remote API.
type UsageFetcher interface {
	Fetch(ctx context.Context, token string) (*UsageResponse, bool)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

type apiFetcher struct {
	client   *http.Client
	endpoint string
	beta     string
	timeout  time.Duration
}

func newAPIFetcher(cfg APIConfig) *apiFetcher {
	return &apiFetcher{
		client:   httpClient,
		endpoint: cfg.Endpoint,
		beta:     cfg.Beta,
		timeout:  cfg.Timeout,
	}
}

func (f *apiFetcher) Fetch(ctx context.Context, token string) (*UsageResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	usage, err := f.fetchUsage(ctx, token)
	if err != nil {
		log.WithError(err).Warn("usage: fetch failed")
		return nil, false
	}
	return usage, true
}

func (f *apiFetcher) fetchUsage(ctx context.Context, token string) (*UsageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("anthropic-beta", f.beta)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	const maxUsageResponseBytes = 1 << 20 // 1 MiB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUsageResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxUsageResponseBytes {
		return nil, fmt.Errorf("API response too large")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("token expired")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error (HTTP %d)", resp.StatusCode)
	}

	var usage UsageResponse
	if err := json.Unmarshal(body, &usage); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &usage, nil
}
