// Package identity resolves IMDb ids through a prioritized multi-provider
// fallback chain. The resolver is a pure function of its injected providers
// and is reused for the main movie, every related-movie slot, and every
// recommendation.
package identity

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"filmdex/internal/logging"
	"filmdex/internal/omdb"
	"filmdex/internal/schema"
	"filmdex/internal/tmdb"
)

// PrimarySearcher is the slice of the primary provider the resolver needs.
type PrimarySearcher interface {
	SearchMovie(ctx context.Context, title, year string) ([]tmdb.Movie, error)
	ExternalIDs(ctx context.Context, movieID int64) (string, error)
}

// SecondarySearcher is the slice of the secondary provider the resolver needs.
type SecondarySearcher interface {
	Search(ctx context.Context, title, year string) ([]omdb.Candidate, error)
}

// Ref names the movie to resolve. TitleOrID carries either a display title or,
// when IsTMDBID is set, a numeric primary-provider id.
type Ref struct {
	TitleOrID string
	YearHint  string
	IsTMDBID  bool
}

// Resolver runs the fallback chain. Either provider may be nil; its steps are
// skipped.
type Resolver struct {
	primary   PrimarySearcher
	secondary SecondarySearcher
	logger    *slog.Logger
}

// NewResolver constructs a resolver over the supplied providers.
func NewResolver(primary PrimarySearcher, secondary SecondarySearcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{primary: primary, secondary: secondary, logger: logger}
}

// ValidYear returns the trimmed year hint when it is exactly four ASCII
// digits, otherwise empty. Invalid hints degrade silently to "no year".
func ValidYear(hint string) string {
	trimmed := strings.TrimSpace(hint)
	if schema.IsFourDigitYear(trimmed) {
		return trimmed
	}
	return ""
}

// Resolve walks the chain and returns the first IMDb id found, or empty when
// every step is exhausted. Provider failures degrade to the next step; only
// context cancellation aborts.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (string, error) {
	raw := strings.TrimSpace(ref.TitleOrID)
	if raw == "" {
		return "", nil
	}

	var title string
	if ref.IsTMDBID {
		if tmdbID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if id := r.crossReference(ctx, tmdbID); id != "" {
				return id, nil
			}
			// An id that resolved to nothing has no title to fall back on.
		} else {
			r.logger.Warn("tmdb id is not numeric, treating as title", logging.String("value", raw))
			title = raw
		}
	} else {
		title = raw
	}
	if title == "" {
		return "", ctx.Err()
	}

	year := ValidYear(ref.YearHint)

	if year != "" {
		if id := r.secondarySearch(ctx, title, year); id != "" {
			return id, nil
		}
		if id := r.primarySearch(ctx, title, year); id != "" {
			return id, nil
		}
	}

	if id := r.secondarySearch(ctx, title, ""); id != "" {
		return id, nil
	}
	if id := r.primarySearch(ctx, title, ""); id != "" {
		return id, nil
	}
	return "", ctx.Err()
}

func (r *Resolver) crossReference(ctx context.Context, tmdbID int64) string {
	if r.primary == nil {
		return ""
	}
	id, err := r.primary.ExternalIDs(ctx, tmdbID)
	if err != nil {
		r.logger.Debug("external id lookup failed",
			logging.Int64("tmdb_id", tmdbID), logging.Error(err))
		return ""
	}
	return id
}

func (r *Resolver) secondarySearch(ctx context.Context, title, year string) string {
	if r.secondary == nil {
		return ""
	}
	candidates, err := r.secondary.Search(ctx, title, year)
	if err != nil {
		r.logger.Debug("secondary search failed",
			logging.String("title", title), logging.String("year", year), logging.Error(err))
		return ""
	}
	if best := pickCandidate(candidates, title, year); best != nil {
		return best.IMDBID
	}
	return ""
}

func (r *Resolver) primarySearch(ctx context.Context, title, year string) string {
	if r.primary == nil {
		return ""
	}
	results, err := r.primary.SearchMovie(ctx, title, year)
	if err != nil {
		r.logger.Debug("primary search failed",
			logging.String("title", title), logging.String("year", year), logging.Error(err))
		return ""
	}
	if len(results) == 0 {
		return ""
	}
	return r.crossReference(ctx, results[0].ID)
}

// pickCandidate applies the secondary-provider tie-break: exact title and
// exact year, then exact title, then year match with title containment, then
// the provider's top-ranked candidate.
func pickCandidate(candidates []omdb.Candidate, title, year string) *omdb.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	titleLower := strings.ToLower(strings.TrimSpace(title))

	if year != "" {
		for i := range candidates {
			if strings.ToLower(candidates[i].Title) == titleLower && yearMatches(candidates[i].Year, year) {
				return &candidates[i]
			}
		}
	}
	for i := range candidates {
		if strings.ToLower(candidates[i].Title) == titleLower {
			return &candidates[i]
		}
	}
	if year != "" {
		for i := range candidates {
			if yearMatches(candidates[i].Year, year) &&
				strings.Contains(strings.ToLower(candidates[i].Title), titleLower) {
				return &candidates[i]
			}
		}
	}
	return &candidates[0]
}

// yearMatches tolerates range-style candidate years such as "2001–2004".
func yearMatches(candidateYear, year string) bool {
	return candidateYear == year || strings.Contains(candidateYear, year)
}
