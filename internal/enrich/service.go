package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"filmdex/internal/config"
	"filmdex/internal/llm"
	"filmdex/internal/logging"
	"filmdex/internal/schema"
	"filmdex/internal/tmdb"
)

// Completer is the slice of the model client the enrichers need.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Service runs the model-backed enrichers.
type Service struct {
	completer Completer
	prompts   *Prompts
	budgets   config.Budgets
	logger    *slog.Logger
}

// NewService constructs the enricher service.
func NewService(completer Completer, prompts *Prompts, budgets config.Budgets, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		completer: completer,
		prompts:   prompts,
		budgets:   budgets,
		logger:    logging.NewComponentLogger(logger, "enrich"),
	}
}

// tokens converts a word budget to the max-tokens parameter of one call.
func (s *Service) tokens(words int) int {
	ratio := s.budgets.WordsToTokensRatio
	if ratio <= 0 {
		ratio = config.DefaultWordsToTokensRatio
	}
	return int(float64(words) * ratio)
}

// InitialResult carries the descriptive field group.
type InitialResult struct {
	CharacterProfile            string
	CriticalReception           string
	VisualStyle                 string
	MostTalkedAboutRelatedTopic string
	ComplexSearchQueries        []string
	Sequel                      *schema.RelatedMovieRef
	Prequel                     *schema.RelatedMovieRef
	SpinOffOf                   *schema.RelatedMovieRef
	SpinOff                     *schema.RelatedMovieRef
	RemakeOf                    *schema.RelatedMovieRef
	Remake                      *schema.RelatedMovieRef
}

// InitialData fills the descriptive fields. The model must echo the candidate
// title back; a mismatch discards the whole call. The model's year is only
// advisory, the provider-sourced year is always kept.
func (s *Service) InitialData(ctx context.Context, title, year string) (*InitialResult, error) {
	prompt := renderTemplate(s.prompts.InitialData, map[string]string{
		"movie_title": title,
		"movie_year":  year,
	})
	raw, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: "You provide movie information in strict YAML format, adhering to the requested structure.",
		UserPrompt:   prompt,
		MaxTokens:    s.tokens(s.budgets.InitialWords),
		Temperature:  0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("initial data call: %w", err)
	}
	data := llm.NormalizeWithLog(s.logger, "initial data for "+title, raw)
	if data == nil {
		return nil, fmt.Errorf("initial data for %q: response not parseable", title)
	}

	echoed, _ := asString(data["movie_title"])
	if !strings.EqualFold(strings.TrimSpace(echoed), strings.TrimSpace(title)) {
		return nil, fmt.Errorf("initial data for %q: model echoed title %q", title, echoed)
	}
	if llmYear, _ := asString(data["movie_year"]); llmYear != "" && strings.TrimSpace(llmYear) != year {
		s.logger.Warn("model year differs from provider year, keeping provider value",
			logging.String(logging.FieldMovie, title),
			logging.String("model_year", llmYear),
			logging.String("provider_year", year))
	}

	result := &InitialResult{
		ComplexSearchQueries: ToStringList(data["complex_search_queries"]),
		Sequel:               ToRelatedRef(data["sequel"]),
		Prequel:              ToRelatedRef(data["prequel"]),
		SpinOffOf:            ToRelatedRef(data["spin_off_of"]),
		SpinOff:              ToRelatedRef(data["spin_off"]),
		RemakeOf:             ToRelatedRef(data["remake_of"]),
		Remake:               ToRelatedRef(data["remake"]),
	}
	result.CharacterProfile, _ = asString(data["character_profile"])
	result.CriticalReception, _ = asString(data["critical_reception"])
	result.VisualStyle, _ = asString(data["visual_style"])
	result.MostTalkedAboutRelatedTopic, _ = asString(data["most_talked_about_related_topic"])
	return result, nil
}

// CharactersAndRelations fills the roster and its normalized relationship
// set, conditioned on the provider's cast listing.
func (s *Service) CharactersAndRelations(ctx context.Context, title, year string, cast []tmdb.CastMember) ([]schema.CharacterListItem, []schema.Relationship, error) {
	if len(cast) == 0 {
		return nil, nil, fmt.Errorf("characters for %q: no cast available", title)
	}

	castContext := make([]map[string]any, 0, len(cast))
	for _, member := range cast {
		castContext = append(castContext, map[string]any{
			"character":      member.CharacterName,
			"actor":          member.ActorName,
			"tmdb_person_id": member.PersonID,
		})
	}
	rendered, err := yaml.Marshal(castContext)
	if err != nil {
		return nil, nil, fmt.Errorf("characters for %q: render cast context: %w", title, err)
	}

	prompt := renderTemplate(s.prompts.CharactersAndRelations, map[string]string{
		"movie_title":  title,
		"movie_year":   year,
		"cast_context": string(rendered),
	})
	words := s.budgets.CharactersBaseWords + len(cast)*(s.budgets.CharacterDescWords+s.budgets.CharacterRelWords)
	raw, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: "You provide movie character information in strict YAML format, adhering to the requested structure.",
		UserPrompt:   prompt,
		MaxTokens:    s.tokens(words),
		Temperature:  0.3,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("characters call: %w", err)
	}
	data := llm.NormalizeWithLog(s.logger, "characters for "+title, raw)
	if data == nil {
		return nil, nil, fmt.Errorf("characters for %q: response not parseable", title)
	}

	roster := s.toCharacterList(data["character_list"], cast)
	if len(roster) == 0 {
		return nil, nil, fmt.Errorf("characters for %q: no usable roster entries", title)
	}
	edges := s.toRelationships(data["relationships"])
	edges = NormalizeRelationships(roster, edges, s.logger)
	return roster, edges, nil
}

func (s *Service) toCharacterList(raw any, cast []tmdb.CastMember) []schema.CharacterListItem {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	personIDs := make(map[string]int64, len(cast))
	for _, member := range cast {
		personIDs[schema.FoldKey(member.CharacterName)] = member.PersonID
	}

	var roster []schema.CharacterListItem
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			s.logger.Warn("dropping malformed roster entry", logging.Int("index", i))
			continue
		}
		name, _ := asString(entry["name"])
		name = strings.TrimSpace(name)
		if name == "" {
			s.logger.Warn("dropping roster entry without a name", logging.Int("index", i))
			continue
		}
		actor, _ := asString(entry["actor_name"])
		description, _ := asString(entry["description"])
		group, _ := asString(entry["group"])
		character := schema.CharacterListItem{
			Name:        name,
			ActorName:   strings.TrimSpace(actor),
			Description: strings.TrimSpace(description),
			Group:       strings.TrimSpace(group),
			Aliases:     ToStringList(entry["aliases"]),
		}
		if id, ok := asInt(entry["tmdb_person_id"]); ok && id > 0 {
			character.TMDBPersonID = int64(id)
		} else if id, ok := personIDs[schema.FoldKey(name)]; ok {
			// Fall back to the provider's cast listing when the model
			// drops or mangles the id.
			character.TMDBPersonID = id
		}
		roster = append(roster, character)
	}
	return roster
}

func (s *Service) toRelationships(raw any) []schema.Relationship {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var edges []schema.Relationship
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			s.logger.Warn("dropping malformed relationship entry", logging.Int("index", i))
			continue
		}
		source, _ := asString(entry["source"])
		target, _ := asString(entry["target"])
		edgeType, _ := asString(entry["type"])
		description, _ := asString(entry["description"])
		sentiment, _ := asString(entry["sentiment"])
		tense, _ := asString(entry["tense"])
		strength, _ := asInt(entry["strength"])

		directed := true
		if value, ok := entry["directed"].(bool); ok {
			directed = value
		}

		edges = append(edges, schema.Relationship{
			Source:      strings.TrimSpace(source),
			Target:      strings.TrimSpace(target),
			Type:        strings.TrimSpace(edgeType),
			Directed:    directed,
			Description: strings.TrimSpace(description),
			Sentiment:   strings.ToLower(strings.TrimSpace(sentiment)),
			Strength:    strength,
			Tense:       strings.ToLower(strings.TrimSpace(tense)),
		})
	}
	return edges
}

// AnalyticalResult carries the analytical field group.
type AnalyticalResult struct {
	Big5            *schema.BigFiveProfile
	MyersBriggs     *schema.TypeProfile
	GenreMix        *schema.GenreMix
	MatchingTags    *schema.TagSet
	Recommendations []schema.Recommendation
}

// AnalyticalData fills the personality profiles, genre mix, tag set, and
// recommendations. Each sub-field degrades independently.
func (s *Service) AnalyticalData(ctx context.Context, title, year string) (*AnalyticalResult, error) {
	prompt := renderTemplate(s.prompts.AnalyticalData, map[string]string{
		"movie_title":         title,
		"movie_year":          year,
		"num_recommendations": strconv.Itoa(5),
	})
	raw, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: "You provide analytical movie information in strict JSON or YAML format, adhering to the requested structure.",
		UserPrompt:   prompt,
		MaxTokens:    s.tokens(s.budgets.AnalyticalWords),
		Temperature:  0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("analytical call: %w", err)
	}
	data := llm.NormalizeWithLog(s.logger, "analytical data for "+title, raw)
	if data == nil {
		return nil, fmt.Errorf("analytical data for %q: response not parseable", title)
	}

	return &AnalyticalResult{
		Big5:            ToBigFive(data["character_profile_big5"]),
		MyersBriggs:     ToTypeProfile(data["character_profile_myersbriggs"]),
		GenreMix:        ToGenreMix(data["genre_mix"]),
		MatchingTags:    ToTagSet(data["matching_tags"]),
		Recommendations: ToRecommendations(data["recommendations"], s.logger),
	}, nil
}

// ReviewSummary summarizes the provider's user reviews. With no reviews there
// is nothing to summarize and no call is made.
func (s *Service) ReviewSummary(ctx context.Context, title string, reviews []tmdb.Review) (string, error) {
	reviewsBlock := s.formatReviews(reviews)
	if reviewsBlock == "" {
		return "", nil
	}
	prompt := renderTemplate(s.prompts.ReviewSummary, map[string]string{
		"movie_title":     title,
		"reviews_context": reviewsBlock,
		"max_words":       strconv.Itoa(s.budgets.ReviewSummaryWords),
	})
	raw, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: "You summarize movie reviews in plain prose.",
		UserPrompt:   prompt,
		MaxTokens:    s.tokens(s.budgets.ReviewSummaryWords),
		Temperature:  0.3,
	})
	if err != nil {
		return "", fmt.Errorf("review summary call: %w", err)
	}
	return strings.TrimSpace(llm.StripCodeFences(raw)), nil
}

// formatReviews renders a bounded review context block.
func (s *Service) formatReviews(reviews []tmdb.Review) string {
	maxReviews := s.budgets.MaxReviews
	if maxReviews <= 0 {
		maxReviews = config.DefaultMaxReviews
	}
	maxLength := s.budgets.MaxReviewLengthChars
	if maxLength <= 0 {
		maxLength = config.DefaultMaxReviewLengthChars
	}

	var b strings.Builder
	count := 0
	for _, review := range reviews {
		if count >= maxReviews {
			break
		}
		content := strings.TrimSpace(review.Content)
		if content == "" {
			continue
		}
		if len(content) > maxLength {
			content = content[:maxLength] + "..."
		}
		author := strings.TrimSpace(review.Author)
		if author == "" {
			author = "Unknown Author"
		}
		fmt.Fprintf(&b, "Review by %s:\n%s\n---\n", author, content)
		count++
	}
	return b.String()
}

// ConstrainedPlot retells the plot constrained to the roster and its
// relationship set. Without a roster the enricher no-ops.
func (s *Service) ConstrainedPlot(ctx context.Context, title, year string, roster []schema.CharacterListItem, relationships []schema.Relationship) (string, error) {
	if len(roster) == 0 {
		return "", nil
	}
	rendered, err := yaml.Marshal(map[string]any{
		"character_list": roster,
		"relationships":  relationships,
	})
	if err != nil {
		return "", fmt.Errorf("constrained plot for %q: render context: %w", title, err)
	}
	prompt := renderTemplate(s.prompts.ConstrainedPlot, map[string]string{
		"movie_title":        title,
		"movie_year":         year,
		"characters_context": string(rendered),
		"max_words":          strconv.Itoa(s.budgets.ConstrainedPlotWords),
	})
	raw, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: "You retell movie plots in plain prose, strictly consistent with the supplied characters and relationships.",
		UserPrompt:   prompt,
		MaxTokens:    s.tokens(s.budgets.ConstrainedPlotWords),
		Temperature:  0.3,
	})
	if err != nil {
		return "", fmt.Errorf("constrained plot call: %w", err)
	}
	return strings.TrimSpace(llm.StripCodeFences(raw)), nil
}
