package schema

import (
	"strings"

	"golang.org/x/text/cases"
)

// TraitScore is one Big Five trait with its supporting explanation.
type TraitScore struct {
	Score       int    `yaml:"score" validate:"min=1,max=5"`
	Explanation string `yaml:"explanation" validate:"required"`
}

// BigFiveProfile holds the five fixed personality traits. A profile is
// all-or-nothing: every trait must be present and in range.
type BigFiveProfile struct {
	Openness          TraitScore `yaml:"openness"`
	Conscientiousness TraitScore `yaml:"conscientiousness"`
	Extraversion      TraitScore `yaml:"extraversion"`
	Agreeableness     TraitScore `yaml:"agreeableness"`
	Neuroticism       TraitScore `yaml:"neuroticism"`
}

// TypeProfile is a four-letter type-indicator personality classification.
type TypeProfile struct {
	Type        string `yaml:"type" validate:"required,mbti"`
	Explanation string `yaml:"explanation" validate:"required"`
}

// GenreMix maps genre names to percentage weights. Weights need not sum
// to 100.
type GenreMix struct {
	Genres map[string]int `yaml:"genres" validate:"required,dive,min=0,max=100"`
}

// TagSet maps tag names from the closed tag vocabulary to justification text.
// An unknown tag name invalidates the whole set.
type TagSet struct {
	Tags map[string]string `yaml:"tags" validate:"omitempty,dive,keys,tagvocab,endkeys,required"`
}

// RelatedMovieRef names a movie in one of the related slots
// (sequel, prequel, remakes, spin-offs).
type RelatedMovieRef struct {
	Title  string `yaml:"title" validate:"required"`
	IMDBID string `yaml:"imdb_id,omitempty"`
}

// Recommendation is one suggested movie. Year is a display string and may
// carry non-numeric upstream placeholders such as "N/A".
type Recommendation struct {
	Title       string `yaml:"title" validate:"required"`
	Year        string `yaml:"year"`
	Explanation string `yaml:"explanation"`
	IMDBID      string `yaml:"imdb_id,omitempty"`
}

// CharacterListItem is one roster entry. Name is canonical and serves as the
// join key for relationship resolution; aliases map to it but never replace it.
type CharacterListItem struct {
	Name         string   `yaml:"name" validate:"required"`
	ActorName    string   `yaml:"actor_name"`
	TMDBPersonID int64    `yaml:"tmdb_person_id,omitempty"`
	Description  string   `yaml:"description"`
	Group        string   `yaml:"group"`
	Aliases      []string `yaml:"aliases,omitempty"`
	ImageFile    string   `yaml:"image_file,omitempty"`
}

// Relationship sentiment and tense vocabularies.
const (
	SentimentPositive    = "positive"
	SentimentNegative    = "negative"
	SentimentNeutral     = "neutral"
	SentimentComplicated = "complicated"

	TensePast     = "past"
	TensePresent  = "present"
	TenseEvolving = "evolving"
)

// Relationship is one edge between two roster characters.
type Relationship struct {
	Source      string `yaml:"source" validate:"required"`
	Target      string `yaml:"target" validate:"required"`
	Type        string `yaml:"type"`
	Directed    bool   `yaml:"directed"`
	Description string `yaml:"description"`
	Sentiment   string `yaml:"sentiment" validate:"oneof=positive negative neutral complicated"`
	Strength    int    `yaml:"strength" validate:"min=1,max=5"`
	Tense       string `yaml:"tense" validate:"oneof=past present evolving"`
}

// MovieRecord is the persisted unit. Field names match the YAML collection
// format.
type MovieRecord struct {
	MovieTitle  string `yaml:"movie_title" validate:"required"`
	MovieYear   string `yaml:"movie_year" validate:"omitempty,year4"`
	TMDBMovieID int64  `yaml:"tmdb_movie_id,omitempty"`
	IMDBID      string `yaml:"imdb_id,omitempty"`

	CharacterProfile            string   `yaml:"character_profile"`
	CriticalReception           string   `yaml:"critical_reception"`
	VisualStyle                 string   `yaml:"visual_style"`
	MostTalkedAboutRelatedTopic string   `yaml:"most_talked_about_related_topic"`
	ComplexSearchQueries        []string `yaml:"complex_search_queries"`

	CharacterProfileBig5        *BigFiveProfile `yaml:"character_profile_big5"`
	CharacterProfileMyersBriggs *TypeProfile    `yaml:"character_profile_myersbriggs"`
	GenreMix                    *GenreMix       `yaml:"genre_mix"`
	MatchingTags                *TagSet         `yaml:"matching_tags"`

	Sequel    *RelatedMovieRef `yaml:"sequel"`
	Prequel   *RelatedMovieRef `yaml:"prequel"`
	SpinOffOf *RelatedMovieRef `yaml:"spin_off_of"`
	SpinOff   *RelatedMovieRef `yaml:"spin_off"`
	RemakeOf  *RelatedMovieRef `yaml:"remake_of"`
	Remake    *RelatedMovieRef `yaml:"remake"`

	Recommendations []Recommendation    `yaml:"recommendations" validate:"omitempty,dive"`
	CharacterList   []CharacterListItem `yaml:"character_list" validate:"omitempty,dive"`
	Relationships   []Relationship      `yaml:"relationships" validate:"omitempty,dive"`

	TMDBUserReviewSummary string `yaml:"tmdb_user_review_summary"`
	ConstrainedPlot       string `yaml:"plot_with_character_constraints_and_relations"`
}

// FoldKey case-folds and trims a string into a case-insensitive match key.
// Folding rather than lowercasing keeps titles like "İstanbul" matching
// across their Unicode case variants.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NormalizeTitle derives the collection dedup key for a title.
func NormalizeTitle(title string) string {
	return FoldKey(title)
}

// Finalize fills type-appropriate empty defaults so that a record with merely
// absent list fields does not fail validation or persist as explicit nulls.
func (r *MovieRecord) Finalize() {
	if r.ComplexSearchQueries == nil {
		r.ComplexSearchQueries = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	if r.CharacterList == nil {
		r.CharacterList = []CharacterListItem{}
	}
	if r.Relationships == nil {
		r.Relationships = []Relationship{}
	}
}
