package enrich

import (
	"reflect"
	"testing"

	"filmdex/internal/schema"
)

func TestToRecommendationsAcceptedShapes(t *testing.T) {
	raw := []any{
		map[string]any{"title": "Blade Runner", "year": "1982", "explanation": "Shared noir aesthetic."},
		[]any{"Gattaca", 1997, "Genetic destiny themes."},
		`["Dark City", "1998", "Constructed-reality mystery."]`,
		`('Moon', '2009', 'Isolation and identity.')`,
	}
	got := ToRecommendations(raw, nil)
	if len(got) != 4 {
		t.Fatalf("got %d recommendations, want 4: %v", len(got), got)
	}
	want := []schema.Recommendation{
		{Title: "Blade Runner", Year: "1982", Explanation: "Shared noir aesthetic."},
		{Title: "Gattaca", Year: "1997", Explanation: "Genetic destiny themes."},
		{Title: "Dark City", Year: "1998", Explanation: "Constructed-reality mystery."},
		{Title: "Moon", Year: "2009", Explanation: "Isolation and identity."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("recommendations = %v, want %v", got, want)
	}
}

func TestToRecommendationsDropsMalformedEntriesIndividually(t *testing.T) {
	raw := []any{
		map[string]any{"title": "Kept", "year": "2000", "explanation": "fine"},
		map[string]any{"title": "", "year": "2001", "explanation": "no title"},
		[]any{"Too", "Short"},
		`[unterminated, "quote]`,
		42,
		map[string]any{"title": "Also Kept", "year": "2002", "explanation": "fine"},
	}
	got := ToRecommendations(raw, nil)
	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want 2: %v", len(got), got)
	}
	if got[0].Title != "Kept" || got[1].Title != "Also Kept" {
		t.Fatalf("kept wrong entries: %v", got)
	}
}

func TestToRecommendationsNonList(t *testing.T) {
	if got := ToRecommendations("not a list", nil); got != nil {
		t.Fatalf("string input should yield nil, got %v", got)
	}
	if got := ToRecommendations(nil, nil); got != nil {
		t.Fatalf("nil input should yield nil, got %v", got)
	}
}

func TestToGenreMixBareMapAutoWrap(t *testing.T) {
	got := ToGenreMix(map[string]any{"Drama": 60, "Thriller": 40})
	if got == nil {
		t.Fatal("bare map should coerce")
	}
	if got.Genres["Drama"] != 60 || got.Genres["Thriller"] != 40 {
		t.Fatalf("genres = %v", got.Genres)
	}

	wrapped := ToGenreMix(map[string]any{"genres": map[string]any{"Drama": 100}})
	if wrapped == nil || wrapped.Genres["Drama"] != 100 {
		t.Fatalf("wrapped form = %v", wrapped)
	}
}

func TestToGenreMixRejectsNonNumericWeight(t *testing.T) {
	if got := ToGenreMix(map[string]any{"Drama": "heavy"}); got != nil {
		t.Fatalf("non-numeric weight should yield nil, got %v", got)
	}
	if got := ToGenreMix([]any{"Drama"}); got != nil {
		t.Fatalf("list input should yield nil, got %v", got)
	}
}

func TestToTagSetBareMapAutoWrap(t *testing.T) {
	got := ToTagSet(map[string]any{"Everyday Magic": "Small wonders in a mundane town."})
	if got == nil || got.Tags["Everyday Magic"] == "" {
		t.Fatalf("bare map form = %v", got)
	}

	wrapped := ToTagSet(map[string]any{"tags": map[string]any{"Legacy Reckoning": "The family business comes due."}})
	if wrapped == nil || wrapped.Tags["Legacy Reckoning"] == "" {
		t.Fatalf("wrapped form = %v", wrapped)
	}

	if got := ToTagSet(map[string]any{"tags": "not a map"}); got != nil {
		t.Fatalf("non-map tags should yield nil, got %v", got)
	}
}

func TestToTagSetRejectsUnknownTagWholesale(t *testing.T) {
	got := ToTagSet(map[string]any{"tags": map[string]any{
		"Everyday Magic": "Small wonders in a mundane town.",
		"Found Family":   "The crew becomes a family.",
	}})
	if got != nil {
		t.Fatalf("set with an out-of-vocabulary tag should yield nil, got %v", got)
	}
}

func TestToRelatedRef(t *testing.T) {
	if got := ToRelatedRef("Aliens"); got == nil || got.Title != "Aliens" {
		t.Fatalf("bare string = %v", got)
	}
	got := ToRelatedRef(map[string]any{"title": "Aliens", "imdb_id": "tt0090605"})
	if got == nil || got.Title != "Aliens" || got.IMDBID != "tt0090605" {
		t.Fatalf("object form = %v", got)
	}
	for _, absent := range []any{"", "  ", "null", "None", nil, 7, map[string]any{"imdb_id": "tt0090605"}} {
		if got := ToRelatedRef(absent); got != nil {
			t.Fatalf("ToRelatedRef(%v) = %v, want nil", absent, got)
		}
	}
}

func TestToStringListWrapsSingleString(t *testing.T) {
	if got := ToStringList("one query"); !reflect.DeepEqual(got, []string{"one query"}) {
		t.Fatalf("single string = %v", got)
	}
	got := ToStringList([]any{"a", "", "  b  ", 3})
	if !reflect.DeepEqual(got, []string{"a", "b", "3"}) {
		t.Fatalf("list form = %v", got)
	}
	if got := ToStringList(map[string]any{}); got != nil {
		t.Fatalf("map input = %v", got)
	}
}

func TestToBigFiveAllOrNothing(t *testing.T) {
	trait := func(score int) map[string]any {
		return map[string]any{"score": score, "explanation": "because"}
	}
	full := map[string]any{
		"Openness":          trait(4),
		"conscientiousness": trait(3),
		"EXTRAVERSION":      trait(2),
		"agreeableness":     trait(5),
		"neuroticism":       trait(1),
	}
	got := ToBigFive(full)
	if got == nil {
		t.Fatal("complete profile should coerce regardless of key casing")
	}
	if got.Openness.Score != 4 || got.Neuroticism.Score != 1 {
		t.Fatalf("profile = %+v", got)
	}

	missing := map[string]any{
		"openness":          trait(4),
		"conscientiousness": trait(3),
		"extraversion":      trait(2),
		"agreeableness":     trait(5),
	}
	if got := ToBigFive(missing); got != nil {
		t.Fatalf("four traits should yield nil, got %+v", got)
	}

	outOfRange := map[string]any{
		"openness":          trait(6),
		"conscientiousness": trait(3),
		"extraversion":      trait(2),
		"agreeableness":     trait(5),
		"neuroticism":       trait(1),
	}
	if got := ToBigFive(outOfRange); got != nil {
		t.Fatalf("score 6 should invalidate the whole profile, got %+v", got)
	}

	noExplanation := map[string]any{
		"openness":          map[string]any{"score": 4, "explanation": ""},
		"conscientiousness": trait(3),
		"extraversion":      trait(2),
		"agreeableness":     trait(5),
		"neuroticism":       trait(1),
	}
	if got := ToBigFive(noExplanation); got != nil {
		t.Fatalf("empty explanation should invalidate the whole profile, got %+v", got)
	}
}

func TestToTypeProfile(t *testing.T) {
	got := ToTypeProfile(map[string]any{"type": "intj", "explanation": "Strategic and reserved."})
	if got == nil || got.Type != "INTJ" {
		t.Fatalf("lowercase code = %v", got)
	}
	if got := ToTypeProfile(map[string]any{"type": "ABCD", "explanation": "x"}); got != nil {
		t.Fatalf("unknown code should yield nil, got %v", got)
	}
	if got := ToTypeProfile(map[string]any{"type": "INTJ"}); got != nil {
		t.Fatalf("missing explanation should yield nil, got %v", got)
	}
}

func TestParseBracketList(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{`["A, B", '1999', "Comma, inside"]`, []string{"A, B", "1999", "Comma, inside"}},
		{`(Heat, 1995, Crime epic)`, []string{"Heat", "1995", "Crime epic"}},
		{`["escaped \" quote", "2000", "x"]`, []string{`escaped " quote`, "2000", "x"}},
		{`not a list`, nil},
		{`["unclosed, "1999", "x"`, nil},
	}
	for _, tc := range cases {
		got := parseBracketList(tc.raw)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parseBracketList(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
