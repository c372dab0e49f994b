package enrich

import (
	"log/slog"
	"strconv"
	"strings"

	"filmdex/internal/logging"
	"filmdex/internal/schema"
)

// Field transformers coerce loosely-typed model output into schema-valid
// sub-structures. The model is not schema-constrained at the source, so each
// logical field may arrive in several wire shapes. Every failure degrades to
// nil for that field; one bad field never invalidates the rest of the record.

// ToRecommendations accepts a list whose entries are keyed objects, 3-element
// [title, year, explanation] lists, or strings that parse into such a list.
// Unreducible entries are dropped individually. A non-list value yields nil.
func ToRecommendations(raw any, logger *slog.Logger) []schema.Recommendation {
	if logger == nil {
		logger = logging.NewNop()
	}
	items, ok := raw.([]any)
	if !ok {
		if raw != nil {
			logger.Warn("recommendations value is not a list")
		}
		return nil
	}

	var out []schema.Recommendation
	for i, item := range items {
		var title, year, explanation string
		switch value := item.(type) {
		case map[string]any:
			title, _ = asString(value["title"])
			year, _ = asString(value["year"])
			explanation, _ = asString(value["explanation"])
		case []any:
			if len(value) == 3 {
				title, _ = asString(value[0])
				year, _ = asString(value[1])
				explanation, _ = asString(value[2])
			}
		case string:
			if parts := parseBracketList(value); len(parts) == 3 {
				title, year, explanation = parts[0], parts[1], parts[2]
			}
		}
		title = strings.TrimSpace(title)
		year = strings.TrimSpace(year)
		explanation = strings.TrimSpace(explanation)
		if title == "" || year == "" || explanation == "" {
			logger.Warn("dropping malformed recommendation entry", logging.Int("index", i))
			continue
		}
		out = append(out, schema.Recommendation{Title: title, Year: year, Explanation: explanation})
	}
	return out
}

// ToGenreMix accepts the target shape {genres: {...}} or a bare genre map.
func ToGenreMix(raw any) *schema.GenreMix {
	mapping, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := mapping["genres"].(map[string]any); ok {
		mapping = inner
	}
	genres := make(map[string]int, len(mapping))
	for name, value := range mapping {
		weight, ok := asInt(value)
		if !ok {
			return nil
		}
		genres[name] = weight
	}
	if len(genres) == 0 {
		return nil
	}
	return &schema.GenreMix{Genres: genres}
}

// ToTagSet accepts the target shape {tags: {...}} or a bare tag map. A set
// containing any tag outside the closed vocabulary is rejected wholesale, so
// a stray tag degrades this field alone rather than the record around it.
func ToTagSet(raw any) *schema.TagSet {
	mapping, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if inner, present := mapping["tags"]; present {
		if inner == nil {
			return nil
		}
		if innerMap, ok := inner.(map[string]any); ok {
			mapping = innerMap
		} else {
			return nil
		}
	}
	tags := make(map[string]string, len(mapping))
	for name, value := range mapping {
		if _, known := schema.TagVocabulary[name]; !known {
			return nil
		}
		text, ok := asString(value)
		if !ok {
			return nil
		}
		tags[name] = strings.TrimSpace(text)
	}
	if len(tags) == 0 {
		return nil
	}
	return &schema.TagSet{Tags: tags}
}

// ToRelatedRef accepts a bare non-empty title string or an already-shaped
// {title, imdb_id?} object.
func ToRelatedRef(raw any) *schema.RelatedMovieRef {
	switch value := raw.(type) {
	case string:
		title := strings.TrimSpace(value)
		if title == "" || strings.EqualFold(title, "null") || strings.EqualFold(title, "none") {
			return nil
		}
		return &schema.RelatedMovieRef{Title: title}
	case map[string]any:
		title, _ := asString(value["title"])
		title = strings.TrimSpace(title)
		if title == "" {
			return nil
		}
		imdbID, _ := asString(value["imdb_id"])
		return &schema.RelatedMovieRef{Title: title, IMDBID: strings.TrimSpace(imdbID)}
	default:
		return nil
	}
}

// ToStringList accepts a list of strings or a single string (wrapped into a
// one-element list).
func ToStringList(raw any) []string {
	switch value := raw.(type) {
	case string:
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	case []any:
		var out []string
		for _, item := range value {
			if text, ok := asString(item); ok {
				if trimmed := strings.TrimSpace(text); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// ToBigFive builds the profile from a trait map, tolerating any casing of the
// five trait keys. All five must be present and well-formed; otherwise the
// whole profile is absent.
func ToBigFive(raw any) *schema.BigFiveProfile {
	mapping, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	byLower := make(map[string]any, len(mapping))
	for key, value := range mapping {
		byLower[strings.ToLower(strings.TrimSpace(key))] = value
	}

	trait := func(name string) (schema.TraitScore, bool) {
		entry, ok := byLower[name].(map[string]any)
		if !ok {
			return schema.TraitScore{}, false
		}
		score, ok := asInt(entry["score"])
		if !ok || score < 1 || score > 5 {
			return schema.TraitScore{}, false
		}
		explanation, _ := asString(entry["explanation"])
		explanation = strings.TrimSpace(explanation)
		if explanation == "" {
			return schema.TraitScore{}, false
		}
		return schema.TraitScore{Score: score, Explanation: explanation}, true
	}

	profile := &schema.BigFiveProfile{}
	var ok2 bool
	if profile.Openness, ok2 = trait("openness"); !ok2 {
		return nil
	}
	if profile.Conscientiousness, ok2 = trait("conscientiousness"); !ok2 {
		return nil
	}
	if profile.Extraversion, ok2 = trait("extraversion"); !ok2 {
		return nil
	}
	if profile.Agreeableness, ok2 = trait("agreeableness"); !ok2 {
		return nil
	}
	if profile.Neuroticism, ok2 = trait("neuroticism"); !ok2 {
		return nil
	}
	return profile
}

// ToTypeProfile builds the four-letter type profile, uppercasing the code.
// Codes outside the fixed enumeration yield nil.
func ToTypeProfile(raw any) *schema.TypeProfile {
	mapping, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	code, _ := asString(mapping["type"])
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := schema.MBTITypes[code]; !ok {
		return nil
	}
	explanation, _ := asString(mapping["explanation"])
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		return nil
	}
	return &schema.TypeProfile{Type: code, Explanation: explanation}
}

// parseBracketList parses a relaxed literal list such as
// ["Title", 1999, "Explanation"] or ('Title', '1999', 'Explanation'),
// returning its elements as strings.
func parseBracketList(raw string) []string {
	text := strings.TrimSpace(raw)
	if len(text) < 2 {
		return nil
	}
	first, last := text[0], text[len(text)-1]
	if !(first == '[' && last == ']') && !(first == '(' && last == ')') {
		return nil
	}
	body := text[1 : len(text)-1]

	var parts []string
	var current strings.Builder
	var quote byte
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case quote != 0:
			if ch == '\\' && i+1 < len(body) {
				i++
				current.WriteByte(body[i])
				continue
			}
			if ch == quote {
				quote = 0
				continue
			}
			current.WriteByte(ch)
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ',':
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	if quote != 0 {
		return nil
	}
	parts = append(parts, strings.TrimSpace(current.String()))
	for _, part := range parts {
		if part == "" {
			return nil
		}
	}
	return parts
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
		return 0, false
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
