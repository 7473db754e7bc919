package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultCloudflareAPIBase = "https://api.cloudflare.com/client/v4"
	// maxFilesPerPurge is the Cloudflare limit for a single purge_cache call.
	maxFilesPerPurge = 30
)

// CloudflareConfig configures the purge client. With Enabled false or a
// missing key or zone, New returns Noop.
type CloudflareConfig struct {
	Enabled bool
	APIKey  string
	ZoneID  string
	APIBase string
	Client  *http.Client
}

func (c CloudflareConfig) enabled() bool {
	return c.Enabled && strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.ZoneID) != ""
}

type Cloudflare struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns the Cloudflare purger or Noop when purging is not configured.
func New(cfg CloudflareConfig) Purger {
	if !cfg.enabled() {
		return Noop{}
	}
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = defaultCloudflareAPIBase
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Cloudflare{
		apiKey:  cfg.APIKey,
		baseURL: fmt.Sprintf("%s/zones/%s", base, cfg.ZoneID),
		client:  client,
	}
}

type purgeRequest struct {
	Files []string `json:"files"`
}

type purgeResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Purge sends the URLs in batches of at most 30. Every batch is attempted;
// the failures are joined into the returned error.
func (c *Cloudflare) Purge(ctx context.Context, urls []string) error {
	var errs []error
	for start := 0; start < len(urls); start += maxFilesPerPurge {
		end := min(start+maxFilesPerPurge, len(urls))
		if err := c.purgeBatch(ctx, urls[start:end]); err != nil {
			errs = append(errs, fmt.Errorf("batch %d: %w", start/maxFilesPerPurge+1, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Cloudflare) purgeBatch(ctx context.Context, files []string) error {
	payload, err := json.Marshal(purgeRequest{Files: files})
	if err != nil {
		return fmt.Errorf("cloudflare: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/purge_cache", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("cloudflare: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudflare: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("cloudflare: purge failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed purgeResponse
	if err := json.Unmarshal(body, &parsed); err == nil && !parsed.Success && len(parsed.Errors) > 0 {
		return fmt.Errorf("cloudflare: purge rejected: %s", parsed.Errors[0].Message)
	}
	return nil
}
