// Package imagesearch implements a small image search client used as a
// fallback when the primary provider has no profile image for a person.
package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the search engine connection settings.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client queries a DuckDuckGo-compatible image search endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an image search client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://duckduckgo.com"
	}
	return client
}

var vqdRe = regexp.MustCompile(`vqd=['"]?([\d-]+)['"]?`)

// Search returns up to n image URLs for the query, in engine ranking order.
func (c *Client) Search(ctx context.Context, query string, n int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("image search: query required")
	}
	if n <= 0 {
		return nil, nil
	}

	token, err := c.fetchToken(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("l", "us-en")
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", token)
	params.Set("f", ",,,")
	params.Set("p", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/i.js?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("image search: new request: %w", err)
	}
	req.Header.Set("Referer", c.cfg.BaseURL+"/")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image search: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search: http %d", resp.StatusCode)
	}

	var decoded struct {
		Results []struct {
			Image string `json:"image"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("image search: decode response: %w", err)
	}

	var urls []string
	for _, result := range decoded.Results {
		if len(urls) >= n {
			break
		}
		if image := strings.TrimSpace(result.Image); image != "" {
			urls = append(urls, image)
		}
	}
	return urls, nil
}

// fetchToken obtains the per-query request token the engine embeds in its
// search page.
func (c *Client) fetchToken(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("image search: token request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search: token http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("image search: token read body: %w", err)
	}
	match := vqdRe.FindSubmatch(body)
	if match == nil {
		return "", errors.New("image search: token not found in search page")
	}
	return string(match[1]), nil
}
