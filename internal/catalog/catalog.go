// Package catalog maintains the persisted movie collection: a single YAML
// file read wholesale at startup and rewritten wholesale, atomically, after
// every successful per-movie enrichment.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"filmdex/internal/logging"
	"filmdex/internal/schema"
)

// Catalog holds the in-memory collection and its normalized-title index.
// It is not safe for concurrent use; the run loop is strictly sequential.
type Catalog struct {
	path    string
	logger  *slog.Logger
	records []schema.MovieRecord
	index   map[string]int // normalized title -> position in records
}

// Open loads the collection from path. A missing file starts an empty
// collection; a malformed file is an error (persisting over it would destroy
// data).
func Open(path string, logger *slog.Logger) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("catalog: path required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Catalog{
		path:   path,
		logger: logging.NewComponentLogger(logger, "catalog"),
		index:  make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Info("collection file not found, starting empty", logging.String("path", path))
			return c, nil
		}
		return nil, fmt.Errorf("catalog: read collection: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}

	var loaded []schema.MovieRecord
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("catalog: parse collection %s: %w", path, err)
	}
	for _, record := range loaded {
		key := schema.NormalizeTitle(record.MovieTitle)
		if key == "" {
			c.logger.Warn("skipping collection entry without a title")
			continue
		}
		if _, dup := c.index[key]; dup {
			c.logger.Warn("skipping duplicate collection entry", logging.String(logging.FieldMovie, record.MovieTitle))
			continue
		}
		c.index[key] = len(c.records)
		c.records = append(c.records, record)
	}
	c.logger.Info("loaded collection",
		logging.Int("movie_count", len(c.records)),
		logging.String("path", path))
	return c, nil
}

// Len returns the number of records in the collection.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Has reports whether a record exists for the normalized title.
func (c *Catalog) Has(title string) bool {
	_, ok := c.index[schema.NormalizeTitle(title)]
	return ok
}

// Get returns a copy of the record for the normalized title.
func (c *Catalog) Get(title string) (schema.MovieRecord, bool) {
	pos, ok := c.index[schema.NormalizeTitle(title)]
	if !ok {
		return schema.MovieRecord{}, false
	}
	return c.records[pos], true
}

// Records returns a copy of the collection in persisted order.
func (c *Catalog) Records() []schema.MovieRecord {
	out := make([]schema.MovieRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Upsert replaces the record matching by tmdb id or normalized title, or
// appends it, then rewrites the whole collection to disk.
func (c *Catalog) Upsert(record schema.MovieRecord) error {
	key := schema.NormalizeTitle(record.MovieTitle)
	if key == "" {
		return errors.New("catalog: record title required")
	}

	pos, ok := c.index[key]
	if !ok && record.TMDBMovieID > 0 {
		for i := range c.records {
			if c.records[i].TMDBMovieID == record.TMDBMovieID {
				pos, ok = i, true
				break
			}
		}
	}

	if ok {
		oldKey := schema.NormalizeTitle(c.records[pos].MovieTitle)
		if oldKey != key {
			delete(c.index, oldKey)
			c.index[key] = pos
		}
		c.records[pos] = record
	} else {
		c.index[key] = len(c.records)
		c.records = append(c.records, record)
	}

	if err := c.save(); err != nil {
		return fmt.Errorf("catalog: persist collection: %w", err)
	}
	c.logger.Debug("persisted collection",
		logging.String(logging.FieldMovie, record.MovieTitle),
		logging.Int("movie_count", len(c.records)))
	return nil
}

// save writes the collection atomically via a temp file.
func (c *Catalog) save() error {
	records := c.records
	if records == nil {
		records = []schema.MovieRecord{}
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
