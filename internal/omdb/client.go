// Package omdb implements the secondary metadata provider client, used for
// IMDb id lookups by title.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 7 * time.Second

// Config captures the provider connection settings.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client talks to an OMDB-compatible API using a query-string key.
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

// NewClient constructs a provider client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(cfg.BaseURL),
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://www.omdbapi.com/"
	}
	return client
}

// Candidate is one search result carrying the cross-reference id.
type Candidate struct {
	IMDBID string
	Title  string
	Year   string
}

type searchResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	IMDBID   string `json:"imdbID"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Search   []struct {
		IMDBID string `json:"imdbID"`
		Title  string `json:"Title"`
		Year   string `json:"Year"`
	} `json:"Search"`
}

// Search queries by title, optionally constrained to a year, and returns the
// candidate list in provider order. A direct single-title match is returned
// as a one-element list. A provider-reported "not found" yields an empty list
// and no error.
func (c *Client) Search(ctx context.Context, title, year string) ([]Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("omdb search: title required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("omdb search: api key required")
	}

	query := url.Values{}
	query.Set("apikey", c.cfg.APIKey)
	query.Set("s", title)
	if year != "" {
		query.Set("y", year)
	}
	endpoint := c.cfg.BaseURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + query.Encode()
	} else {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("omdb search: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("omdb search: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("omdb search: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb search: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("omdb search: decode response: %w", err)
	}
	if decoded.Response != "True" {
		// "Movie not found!" is an empty result, not a transport failure.
		return nil, nil
	}

	if len(decoded.Search) > 0 {
		candidates := make([]Candidate, 0, len(decoded.Search))
		for _, item := range decoded.Search {
			if strings.TrimSpace(item.IMDBID) == "" {
				continue
			}
			candidates = append(candidates, Candidate{
				IMDBID: strings.TrimSpace(item.IMDBID),
				Title:  strings.TrimSpace(item.Title),
				Year:   strings.TrimSpace(item.Year),
			})
		}
		return candidates, nil
	}
	if strings.TrimSpace(decoded.IMDBID) != "" {
		return []Candidate{{
			IMDBID: strings.TrimSpace(decoded.IMDBID),
			Title:  strings.TrimSpace(decoded.Title),
			Year:   strings.TrimSpace(decoded.Year),
		}}, nil
	}
	return nil, nil
}
