package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded configuration for missing credentials and
// out-of-range values. All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string

	problems = append(problems, c.Paths.validate()...)
	problems = append(problems, c.TMDB.validate()...)
	problems = append(problems, c.OMDB.validate(c.Enrichers)...)
	problems = append(problems, c.LLM.validate(c.Enrichers)...)
	problems = append(problems, c.Run.validate()...)
	problems = append(problems, c.Budgets.validate()...)
	problems = append(problems, c.Logging.validate()...)

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func (p Paths) validate() []string {
	var problems []string
	if p.OutputFile == "" {
		problems = append(problems, "paths.output_file is required")
	}
	if p.LogDir == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	return problems
}

func (t TMDB) validate() []string {
	var problems []string
	if t.APIKey == "" {
		problems = append(problems, "tmdb.api_key is required (set in config or TMDB_API_KEY)")
	}
	if t.BaseURL == "" {
		problems = append(problems, "tmdb.base_url is required")
	}
	return problems
}

func (o OMDB) validate(enrichers Enrichers) []string {
	var problems []string
	if enrichers.FetchIMDBIDs && o.APIKey == "" {
		problems = append(problems, "omdb.api_key is required when enrichers.fetch_imdb_ids is enabled (set in config or OMDB_API_KEY)")
	}
	return problems
}

func (l LLM) validate(enrichers Enrichers) []string {
	var problems []string
	llmActive := enrichers.InitialData || enrichers.CharactersAndRelations ||
		enrichers.AnalyticalData || enrichers.ReviewSummary || enrichers.ConstrainedPlot
	if llmActive {
		if l.APIKey == "" {
			problems = append(problems, "llm.api_key is required when any LLM enricher is enabled (set in config or FILMDEX_LLM_API_KEY)")
		}
		if l.Model == "" {
			problems = append(problems, "llm.model is required when any LLM enricher is enabled")
		}
	}
	if l.BaseURL == "" {
		problems = append(problems, "llm.base_url is required")
	}
	if l.TimeoutSeconds <= 0 {
		problems = append(problems, "llm.timeout_seconds must be positive")
	}
	return problems
}

func (r Run) validate() []string {
	var problems []string
	switch r.Mode {
	case ModeDiscover, ModeRefresh:
	default:
		problems = append(problems, fmt.Sprintf("run.mode must be %q or %q, got %q", ModeDiscover, ModeRefresh, r.Mode))
	}
	if r.Mode == ModeRefresh && len(r.RefreshTitles) == 0 {
		problems = append(problems, "run.refresh_titles must name at least one movie in refresh mode")
	}
	if r.NewMovieQuota <= 0 {
		problems = append(problems, "run.new_movie_quota must be positive")
	}
	if r.MaxListingPages <= 0 {
		problems = append(problems, "run.max_listing_pages must be positive")
	}
	if r.CandidateDelaySeconds < 0 {
		problems = append(problems, "run.candidate_delay_seconds must not be negative")
	}
	if r.PageDelaySeconds < 0 {
		problems = append(problems, "run.page_delay_seconds must not be negative")
	}
	return problems
}

func (b Budgets) validate() []string {
	var problems []string
	if b.WordsToTokensRatio <= 0 {
		problems = append(problems, "budgets.words_to_tokens_ratio must be positive")
	}
	positives := []struct {
		name  string
		value int
	}{
		{"budgets.initial_words", b.InitialWords},
		{"budgets.analytical_words", b.AnalyticalWords},
		{"budgets.review_summary_words", b.ReviewSummaryWords},
		{"budgets.constrained_plot_words", b.ConstrainedPlotWords},
		{"budgets.characters_base_words", b.CharactersBaseWords},
		{"budgets.character_desc_words", b.CharacterDescWords},
		{"budgets.character_rel_words", b.CharacterRelWords},
		{"budgets.max_characters", b.MaxCharacters},
		{"budgets.max_reviews", b.MaxReviews},
		{"budgets.max_review_length_chars", b.MaxReviewLengthChars},
	}
	for _, field := range positives {
		if field.value <= 0 {
			problems = append(problems, field.name+" must be positive")
		}
	}
	return problems
}

func (l Logging) validate() []string {
	var problems []string
	switch l.Format {
	case "auto", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be auto, console, or json, got %q", l.Format))
	}
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be one of debug, info, warn, error, got %q", l.Level))
	}
	return problems
}
