// Package tmdb implements the primary metadata provider client: top-rated
// listing, title search, external id cross-reference, credits, reviews, and
// person images.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// Config captures the provider connection settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Language  string
	ImageURL  string
	ImageSize string
}

// Client talks to a TMDB-compatible API using bearer-token auth.
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
			APIKey:    strings.TrimSpace(cfg.APIKey),
			BaseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Language:  strings.TrimSpace(cfg.Language),
			ImageURL:  strings.TrimRight(strings.TrimSpace(cfg.ImageURL), "/"),
			ImageSize: strings.TrimSpace(cfg.ImageSize),
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.themoviedb.org/3"
	}
	if client.cfg.Language == "" {
		client.cfg.Language = "en-US"
	}
	return client
}

// Movie is one listing or search result.
type Movie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

// Year returns the four-digit release year, or empty when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// Page is one page of the top-rated listing.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// CastMember is one credited performer.
type CastMember struct {
	CharacterName string
	ActorName     string
	PersonID      int64
}

// Review is one user review.
type Review struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// TopRated fetches one page of the top-rated movie listing.
func (c *Client) TopRated(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("language", c.cfg.Language)
	query.Set("page", strconv.Itoa(page))

	var result Page
	if err := c.getJSON(ctx, "/movie/top_rated", query, &result); err != nil {
		return nil, fmt.Errorf("tmdb top rated page %d: %w", page, err)
	}
	return &result, nil
}

// SearchMovie searches by title, optionally constrained to a primary release
// year. Results come back in the provider's ranking order.
func (c *Client) SearchMovie(ctx context.Context, title, year string) ([]Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("tmdb search: title required")
	}
	query := url.Values{}
	query.Set("query", title)
	query.Set("include_adult", "false")
	query.Set("language", c.cfg.Language)
	query.Set("page", "1")
	if year != "" {
		query.Set("primary_release_year", year)
	}

	var result struct {
		Results []Movie `json:"results"`
	}
	if err := c.getJSON(ctx, "/search/movie", query, &result); err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w", title, err)
	}
	return result.Results, nil
}

// ExternalIDs returns the IMDb id cross-referenced for a movie, or empty when
// the provider has none.
func (c *Client) ExternalIDs(ctx context.Context, movieID int64) (string, error) {
	if movieID <= 0 {
		return "", errors.New("tmdb external ids: movie id required")
	}
	var result struct {
		IMDBID string `json:"imdb_id"`
	}
	path := fmt.Sprintf("/movie/%d/external_ids", movieID)
	if err := c.getJSON(ctx, path, nil, &result); err != nil {
		return "", fmt.Errorf("tmdb external ids for %d: %w", movieID, err)
	}
	return strings.TrimSpace(result.IMDBID), nil
}

// Credits returns up to limit cast members in billing order. Entries with an
// empty or implausibly long character name, a missing actor, or no person id
// are skipped.
func (c *Client) Credits(ctx context.Context, movieID int64, limit int) ([]CastMember, error) {
	if movieID <= 0 {
		return nil, errors.New("tmdb credits: movie id required")
	}
	query := url.Values{}
	query.Set("language", c.cfg.Language)

	var result struct {
		Cast []struct {
			Character string `json:"character"`
			Name      string `json:"name"`
			ID        int64  `json:"id"`
			Order     int    `json:"order"`
		} `json:"cast"`
	}
	path := fmt.Sprintf("/movie/%d/credits", movieID)
	if err := c.getJSON(ctx, path, query, &result); err != nil {
		return nil, fmt.Errorf("tmdb credits for %d: %w", movieID, err)
	}

	sort.SliceStable(result.Cast, func(i, j int) bool {
		return result.Cast[i].Order < result.Cast[j].Order
	})

	var cast []CastMember
	for _, member := range result.Cast {
		if limit > 0 && len(cast) >= limit {
			break
		}
		character := strings.TrimSpace(member.Character)
		actor := strings.TrimSpace(member.Name)
		if len(character) < 2 || len(character) > 70 || actor == "" || member.ID <= 0 {
			continue
		}
		cast = append(cast, CastMember{
			CharacterName: character,
			ActorName:     actor,
			PersonID:      member.ID,
		})
	}
	return cast, nil
}

// Reviews returns the first page of user reviews for a movie.
func (c *Client) Reviews(ctx context.Context, movieID int64) ([]Review, error) {
	if movieID <= 0 {
		return nil, errors.New("tmdb reviews: movie id required")
	}
	query := url.Values{}
	query.Set("language", c.cfg.Language)
	query.Set("page", "1")

	var result struct {
		Results []Review `json:"results"`
	}
	path := fmt.Sprintf("/movie/%d/reviews", movieID)
	if err := c.getJSON(ctx, path, query, &result); err != nil {
		return nil, fmt.Errorf("tmdb reviews for %d: %w", movieID, err)
	}
	return result.Results, nil
}

// PersonImageURL returns the full URL of a person's first profile image, or
// empty when none exists.
func (c *Client) PersonImageURL(ctx context.Context, personID int64) (string, error) {
	if personID <= 0 {
		return "", errors.New("tmdb person images: person id required")
	}
	var result struct {
		Profiles []struct {
			FilePath string `json:"file_path"`
		} `json:"profiles"`
	}
	path := fmt.Sprintf("/person/%d/images", personID)
	if err := c.getJSON(ctx, path, nil, &result); err != nil {
		return "", fmt.Errorf("tmdb person images for %d: %w", personID, err)
	}
	if len(result.Profiles) == 0 {
		return "", nil
	}
	suffix := strings.TrimSpace(result.Profiles[0].FilePath)
	if suffix == "" {
		return "", nil
	}
	base := c.cfg.ImageURL
	if base == "" {
		base = "https://image.tmdb.org/t/p"
	}
	size := c.cfg.ImageSize
	if size == "" {
		size = "w500"
	}
	return base + "/" + size + suffix, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.cfg.APIKey == "" {
		return errors.New("api key required")
	}
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
