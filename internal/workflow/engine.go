// Package workflow drives enrichment runs: it selects movie candidates,
// decides which field groups to recompute for each, invokes the enrichers,
// and persists finished records one movie at a time.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"filmdex/internal/catalog"
	"filmdex/internal/config"
	"filmdex/internal/enrich"
	"filmdex/internal/identity"
	"filmdex/internal/logging"
	"filmdex/internal/schema"
	"filmdex/internal/tmdb"
)

// MetadataProvider is the slice of the primary provider the engine needs.
type MetadataProvider interface {
	TopRated(ctx context.Context, page int) (*tmdb.Page, error)
	Credits(ctx context.Context, movieID int64, limit int) ([]tmdb.CastMember, error)
	Reviews(ctx context.Context, movieID int64) ([]tmdb.Review, error)
	PersonImageURL(ctx context.Context, personID int64) (string, error)
}

// Enricher is the slice of the model-backed enricher service the engine needs.
type Enricher interface {
	InitialData(ctx context.Context, title, year string) (*enrich.InitialResult, error)
	CharactersAndRelations(ctx context.Context, title, year string, cast []tmdb.CastMember) ([]schema.CharacterListItem, []schema.Relationship, error)
	AnalyticalData(ctx context.Context, title, year string) (*enrich.AnalyticalResult, error)
	ReviewSummary(ctx context.Context, title string, reviews []tmdb.Review) (string, error)
	ConstrainedPlot(ctx context.Context, title, year string, roster []schema.CharacterListItem, relationships []schema.Relationship) (string, error)
}

// IDResolver resolves an IMDb id for a movie reference.
type IDResolver interface {
	Resolve(ctx context.Context, ref identity.Ref) (string, error)
}

// Engine owns the per-run state: the collection, the new-movie counter, and
// the session id stamped on every log line.
type Engine struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	metadata  MetadataProvider
	enricher  Enricher
	resolver  IDResolver
	images    *ImageFetcher
	sleeper   func(time.Duration)
	logger    *slog.Logger
	sessionID string
	newMovies int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSleeper overrides how inter-candidate and inter-page delays are
// performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(e *Engine) {
		e.sleeper = sleeper
	}
}

// WithImageFetcher enables character image assignment.
func WithImageFetcher(images *ImageFetcher) Option {
	return func(e *Engine) {
		e.images = images
	}
}

// NewEngine constructs an engine over the supplied collaborators. resolver
// may be nil when identity resolution is disabled.
func NewEngine(cfg *config.Config, cat *catalog.Catalog, metadata MetadataProvider, enricher Enricher, resolver IDResolver, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &Engine{
		cfg:       cfg,
		catalog:   cat,
		metadata:  metadata,
		enricher:  enricher,
		resolver:  resolver,
		sleeper:   time.Sleep,
		sessionID: uuid.NewString(),
	}
	engine.logger = logging.NewComponentLogger(logger, "workflow").
		With(logging.String(logging.FieldSessionID, engine.sessionID))
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// SessionID reports the identifier stamped on this run's log lines.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Run executes one full enrichment run in the configured mode.
func (e *Engine) Run(ctx context.Context) error {
	switch e.cfg.Run.Mode {
	case config.ModeDiscover:
		return e.runDiscover(ctx)
	case config.ModeRefresh:
		return e.runRefresh(ctx)
	default:
		return fmt.Errorf("unknown run mode %q", e.cfg.Run.Mode)
	}
}

// runDiscover pages through the top-rated listing. The loop ends on the
// new-movie quota, the page budget, or the provider's last page. When
// existing-movie updates are on, a filled quota stops new additions but
// paging continues so later pages still get their refresh.
func (e *Engine) runDiscover(ctx context.Context) error {
	quota := e.cfg.Run.NewMovieQuota
	maxPages := e.cfg.Run.MaxListingPages

	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		if quota > 0 && e.newMovies >= quota && !e.cfg.Run.UpdateExisting {
			break
		}
		listing, err := e.metadata.TopRated(ctx, page)
		if err != nil {
			e.logger.Warn("listing page failed, stopping discovery",
				logging.Int("page", page), logging.Error(err))
			break
		}
		e.logger.Info("scanning listing page",
			logging.Int("page", page), logging.Int("total_pages", listing.TotalPages))

		for _, movie := range listing.Results {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			existing, known := e.catalog.Get(movie.Title)
			switch {
			case known && e.cfg.Run.UpdateExisting:
				e.processCandidate(ctx, movie, &existing)
			case known:
				continue
			default:
				if quota > 0 && e.newMovies >= quota {
					continue
				}
				if e.processCandidate(ctx, movie, nil) {
					e.newMovies++
				}
			}
			e.pause(e.cfg.Run.CandidateDelaySeconds)
		}

		if listing.TotalPages > 0 && page >= listing.TotalPages {
			break
		}
		e.pause(e.cfg.Run.PageDelaySeconds)
	}

	e.logger.Info("discovery run finished", logging.Int("new_movies", e.newMovies))
	return ctx.Err()
}

// runRefresh re-enriches the explicitly configured titles. Titles not in the
// collection are skipped, not discovered.
func (e *Engine) runRefresh(ctx context.Context) error {
	for _, title := range e.cfg.Run.RefreshTitles {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		existing, ok := e.catalog.Get(title)
		if !ok {
			e.logger.Warn("refresh title not in collection, skipping",
				logging.String(logging.FieldMovie, title))
			continue
		}
		movie := tmdb.Movie{ID: existing.TMDBMovieID, Title: existing.MovieTitle}
		if schema.IsFourDigitYear(existing.MovieYear) {
			movie.ReleaseDate = existing.MovieYear + "-01-01"
		}
		e.processCandidate(ctx, movie, &existing)
		e.pause(e.cfg.Run.CandidateDelaySeconds)
	}
	return ctx.Err()
}

// processCandidate enriches one movie end to end and persists it. It reports
// whether the record was persisted; enricher failures degrade per group and
// never abort the candidate.
func (e *Engine) processCandidate(ctx context.Context, movie tmdb.Movie, existing *schema.MovieRecord) bool {
	isNew := existing == nil
	logger := e.logger.With(logging.String(logging.FieldMovie, movie.Title))
	if isNew {
		logger.Info("enriching new movie")
	} else {
		logger.Info("updating existing movie")
	}

	var working schema.MovieRecord
	if existing != nil {
		working = *existing
	}
	working.MovieTitle = movie.Title
	if year := movie.Year(); year != "" {
		working.MovieYear = year
	}
	if movie.ID > 0 {
		working.TMDBMovieID = movie.ID
	}

	groups := e.groupsToRun(isNew, logger)
	for _, group := range schema.AllGroups {
		if _, run := groups[group]; !run {
			continue
		}
		e.runGroup(ctx, group, &working, logger)
	}

	working.Finalize()
	if err := schema.ValidateRecord(&working); err != nil {
		logger.Error("record failed schema validation, skipping persistence",
			logging.Error(err))
		return false
	}
	if err := e.catalog.Upsert(working); err != nil {
		logger.Error("persisting record failed", logging.Error(err))
		return false
	}
	logger.Info("record persisted")
	return true
}

func (e *Engine) runGroup(ctx context.Context, group schema.FieldGroup, working *schema.MovieRecord, logger *slog.Logger) {
	logger = logger.With(logging.String(logging.FieldGroup, string(group)))
	switch group {
	case schema.GroupInitialData:
		e.runInitialData(ctx, working, logger)
	case schema.GroupCharactersAndRelations:
		e.runCharacters(ctx, working, logger)
	case schema.GroupAnalyticalData:
		e.runAnalytical(ctx, working, logger)
	case schema.GroupReviewSummary:
		e.runReviewSummary(ctx, working, logger)
	case schema.GroupConstrainedPlot:
		e.runConstrainedPlot(ctx, working, logger)
	case schema.GroupFetchIMDBIDs:
		e.runFetchIMDBIDs(ctx, working, logger)
	}
}

func (e *Engine) runInitialData(ctx context.Context, working *schema.MovieRecord, logger *slog.Logger) {
	result, err := e.enricher.InitialData(ctx, working.MovieTitle, working.MovieYear)
	if err != nil {
		logger.Warn("enricher failed, keeping previous values", logging.Error(err))
		return
	}
	working.CharacterProfile = result.CharacterProfile
	working.CriticalReception = result.CriticalReception
	working.VisualStyle = result.VisualStyle
	working.MostTalkedAboutRelatedTopic = result.MostTalkedAboutRelatedTopic
	working.ComplexSearchQueries = result.ComplexSearchQueries
	working.Sequel = result.Sequel
	working.Prequel = result.Prequel
	working.SpinOffOf = result.SpinOffOf
	working.SpinOff = result.SpinOff
	working.RemakeOf = result.RemakeOf
	working.Remake = result.Remake
}

func (e *Engine) runCharacters(ctx context.Context, working *schema.MovieRecord, logger *slog.Logger) {
	if working.TMDBMovieID <= 0 {
		logger.Warn("no primary-provider id, cannot fetch cast")
		return
	}
	cast, err := e.metadata.Credits(ctx, working.TMDBMovieID, e.cfg.Budgets.MaxCharacters)
	if err != nil {
		logger.Warn("cast lookup failed, keeping previous values", logging.Error(err))
		return
	}
	roster, relationships, err := e.enricher.CharactersAndRelations(ctx, working.MovieTitle, working.MovieYear, cast)
	if err != nil {
		logger.Warn("enricher failed, keeping previous values", logging.Error(err))
		return
	}
	working.CharacterList = roster
	working.Relationships = relationships
	if e.images != nil && e.cfg.Enrichers.FetchCharacterImages {
		e.images.AssignImages(ctx, working.MovieTitle, working.CharacterList)
	}
}

func (e *Engine) runAnalytical(ctx context.Context, working *schema.MovieRecord, logger *slog.Logger) {
	result, err := e.enricher.AnalyticalData(ctx, working.MovieTitle, working.MovieYear)
	if err != nil {
		logger.Warn("enricher failed, keeping previous values", logging.Error(err))
		return
	}
	working.CharacterProfileBig5 = result.Big5
	working.CharacterProfileMyersBriggs = result.MyersBriggs
	working.GenreMix = result.GenreMix
	working.MatchingTags = result.MatchingTags
	working.Recommendations = result.Recommendations
}

func (e *Engine) runReviewSummary(ctx context.Context, working *schema.MovieRecord, logger *slog.Logger) {
	if working.TMDBMovieID <= 0 {
		logger.Warn("no primary-provider id, cannot fetch reviews")
		return
	}
	reviews, err := e.metadata.Reviews(ctx, working.TMDBMovieID)
	if err != nil {
		logger.Warn("review lookup failed, keeping previous value", logging.Error(err))
		return
	}
	summary, err := e.enricher.ReviewSummary(ctx, working.MovieTitle, reviews)
	if err != nil {
		logger.Warn("enricher failed, keeping previous value", logging.Error(err))
		return
	}
	if summary != "" {
		working.TMDBUserReviewSummary = summary
	}
}

func (e *Engine) runConstrainedPlot(ctx context.Context, working *schema.MovieRecord, logger *slog.Logger) {
	if len(working.CharacterList) == 0 {
		// Depends on the roster; without one this group is a no-op.
		logger.Info("no character roster, skipping")
		return
	}
	plot, err := e.enricher.ConstrainedPlot(ctx, working.MovieTitle, working.MovieYear, working.CharacterList, working.Relationships)
	if err != nil {
		logger.Warn("enricher failed, keeping previous value", logging.Error(err))
		return
	}
	if plot != "" {
		working.ConstrainedPlot = plot
	}
}

// runFetchIMDBIDs resolves the main record, the six related-movie slots, and
// every recommendation. Already-resolved ids are left alone.
func (e *Engine) runFetchIMDBIDs(ctx context.Context, working *schema.MovieRecord, logger *slog.Logger) {
	if e.resolver == nil {
		return
	}
	if working.IMDBID == "" {
		ref := identity.Ref{TitleOrID: working.MovieTitle, YearHint: working.MovieYear}
		if working.TMDBMovieID > 0 {
			ref.TitleOrID = strconv.FormatInt(working.TMDBMovieID, 10)
			ref.IsTMDBID = true
		}
		working.IMDBID = e.resolveRef(ctx, ref, logger)
	}
	for _, related := range []*schema.RelatedMovieRef{
		working.Sequel, working.Prequel, working.SpinOffOf,
		working.SpinOff, working.RemakeOf, working.Remake,
	} {
		if related == nil || related.IMDBID != "" {
			continue
		}
		related.IMDBID = e.resolveRef(ctx, identity.Ref{TitleOrID: related.Title}, logger)
	}
	for i := range working.Recommendations {
		rec := &working.Recommendations[i]
		if rec.IMDBID != "" {
			continue
		}
		rec.IMDBID = e.resolveRef(ctx, identity.Ref{TitleOrID: rec.Title, YearHint: rec.Year}, logger)
	}
}

func (e *Engine) resolveRef(ctx context.Context, ref identity.Ref, logger *slog.Logger) string {
	id, err := e.resolver.Resolve(ctx, ref)
	if err != nil {
		logger.Warn("identity resolution aborted", logging.Error(err))
		return ""
	}
	return id
}

// groupsToRun applies the field-update policy: new records always get every
// active group, existing records only the groups covering the configured
// field list (empty list = all active groups).
func (e *Engine) groupsToRun(isNew bool, logger *slog.Logger) map[schema.FieldGroup]struct{} {
	active := e.activeGroups()
	if isNew || len(e.cfg.Run.KeysToUpdate) == 0 {
		return active
	}
	targeted, unknown := schema.GroupsForFields(e.cfg.Run.KeysToUpdate)
	for _, field := range unknown {
		logger.Warn("update policy names unknown field", logging.String("field", field))
	}
	for group := range active {
		if _, ok := targeted[group]; !ok {
			delete(active, group)
		}
	}
	return active
}

func (e *Engine) activeGroups() map[schema.FieldGroup]struct{} {
	active := make(map[schema.FieldGroup]struct{})
	enrichers := e.cfg.Enrichers
	if enrichers.InitialData {
		active[schema.GroupInitialData] = struct{}{}
	}
	if enrichers.CharactersAndRelations {
		active[schema.GroupCharactersAndRelations] = struct{}{}
	}
	if enrichers.AnalyticalData {
		active[schema.GroupAnalyticalData] = struct{}{}
	}
	if enrichers.ReviewSummary {
		active[schema.GroupReviewSummary] = struct{}{}
	}
	if enrichers.ConstrainedPlot {
		active[schema.GroupConstrainedPlot] = struct{}{}
	}
	if enrichers.FetchIMDBIDs {
		active[schema.GroupFetchIMDBIDs] = struct{}{}
	}
	return active
}

func (e *Engine) pause(seconds int) {
	if seconds <= 0 {
		return
	}
	e.sleeper(time.Duration(seconds) * time.Second)
}
