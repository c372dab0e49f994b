package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"filmdex/internal/logging"
	"filmdex/internal/schema"
)

// PersonImageSource is the slice of the primary provider the fetcher needs.
type PersonImageSource interface {
	PersonImageURL(ctx context.Context, personID int64) (string, error)
}

// ImageSearcher is the fallback image-search client.
type ImageSearcher interface {
	Search(ctx context.Context, query string, n int) ([]string, error)
}

const maxImageBytes = 10 << 20

// ImageFetcher downloads character portraits into a local directory. The
// primary provider's person images are tried first, then a general image
// search on the movie and character name.
type ImageFetcher struct {
	persons  PersonImageSource
	search   ImageSearcher
	client   *http.Client
	dir      string
	maxLinks int
	logger   *slog.Logger
}

// ImageOption configures an ImageFetcher.
type ImageOption func(*ImageFetcher)

// WithImageHTTPClient overrides the download client (useful for tests).
func WithImageHTTPClient(client *http.Client) ImageOption {
	return func(f *ImageFetcher) {
		f.client = client
	}
}

// NewImageFetcher constructs a fetcher writing into dir. search may be nil to
// disable the fallback; maxLinks bounds how many search results are tried.
func NewImageFetcher(persons PersonImageSource, search ImageSearcher, dir string, maxLinks int, logger *slog.Logger, opts ...ImageOption) *ImageFetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if maxLinks <= 0 {
		maxLinks = 1
	}
	fetcher := &ImageFetcher{
		persons:  persons,
		search:   search,
		client:   &http.Client{Timeout: 30 * time.Second},
		dir:      dir,
		maxLinks: maxLinks,
		logger:   logging.NewComponentLogger(logger, "images"),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// AssignImages fills ImageFile for each roster entry it can fetch a portrait
// for. Entries that already carry a file are left alone; every failure leaves
// the field empty and moves on.
func (f *ImageFetcher) AssignImages(ctx context.Context, movieTitle string, roster []schema.CharacterListItem) {
	for i := range roster {
		character := &roster[i]
		if character.ImageFile != "" {
			continue
		}
		file, err := f.fetchOne(ctx, movieTitle, character)
		if err != nil {
			f.logger.Warn("no image for character",
				logging.String(logging.FieldMovie, movieTitle),
				logging.String("character", character.Name),
				logging.Error(err))
			continue
		}
		character.ImageFile = file
	}
}

func (f *ImageFetcher) fetchOne(ctx context.Context, movieTitle string, character *schema.CharacterListItem) (string, error) {
	base := sanitizeFileName(movieTitle + "_" + character.Name)

	if f.persons != nil && character.TMDBPersonID > 0 {
		imageURL, err := f.persons.PersonImageURL(ctx, character.TMDBPersonID)
		if err == nil && imageURL != "" {
			if file, err := f.download(ctx, imageURL, base); err == nil {
				return file, nil
			}
		}
	}

	if f.search == nil {
		return "", fmt.Errorf("no portrait for %q", character.Name)
	}
	query := movieTitle + " " + character.Name + " character"
	links, err := f.search.Search(ctx, query, f.maxLinks)
	if err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	for _, link := range links {
		if file, err := f.download(ctx, link, base); err == nil {
			return file, nil
		}
	}
	return "", fmt.Errorf("no downloadable result among %d links", len(links))
}

// download writes the image atomically and returns its file name relative to
// the image directory.
func (f *ImageFetcher) download(ctx context.Context, imageURL, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", fmt.Errorf("fetch image: empty body")
	}

	name := base + imageExtension(imageURL)
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", err
	}
	tmp := filepath.Join(f.dir, name+".tmp")
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, filepath.Join(f.dir, name)); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return name, nil
}

func imageExtension(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(path.Ext(parsed.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return ext
	default:
		return ".jpg"
	}
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
