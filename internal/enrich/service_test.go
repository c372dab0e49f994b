package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmdex/internal/config"
	"filmdex/internal/llm"
	"filmdex/internal/schema"
	"filmdex/internal/tmdb"
)

type stubCompleter struct {
	responses []string
	err       error
	requests  []llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("stub exhausted")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

func newTestService(t *testing.T, completer Completer) *Service {
	t.Helper()
	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("load embedded prompts: %v", err)
	}
	return NewService(completer, prompts, config.Default().Budgets, nil)
}

func TestInitialDataParsesFencedResponse(t *testing.T) {
	stub := &stubCompleter{responses: []string{"```yaml\n" + strings.Join([]string{
		"movie_title: Example Film",
		"movie_year: \"2001\"",
		"character_profile: A stoic lead.",
		"critical_reception: Praised widely.",
		"visual_style: Stark and cold.",
		"most_talked_about_related_topic: The ending.",
		"complex_search_queries: movies about memory loss", // bare string form
		"sequel: Example Film 2",
		"remake_of:",
		"  title: Original Film",
		"  imdb_id: tt0000001",
		"prequel: \"null\"",
	}, "\n") + "\n```"}}
	svc := newTestService(t, stub)

	got, err := svc.InitialData(context.Background(), "Example Film", "2001")
	if err != nil {
		t.Fatalf("InitialData: %v", err)
	}
	if got.CharacterProfile != "A stoic lead." {
		t.Fatalf("character_profile = %q", got.CharacterProfile)
	}
	if len(got.ComplexSearchQueries) != 1 || got.ComplexSearchQueries[0] != "movies about memory loss" {
		t.Fatalf("complex_search_queries = %v", got.ComplexSearchQueries)
	}
	if got.Sequel == nil || got.Sequel.Title != "Example Film 2" {
		t.Fatalf("sequel = %v", got.Sequel)
	}
	if got.RemakeOf == nil || got.RemakeOf.IMDBID != "tt0000001" {
		t.Fatalf("remake_of = %v", got.RemakeOf)
	}
	if got.Prequel != nil {
		t.Fatalf("literal null title should be absent, got %v", got.Prequel)
	}
	if len(stub.requests) != 1 {
		t.Fatalf("made %d calls, want 1", len(stub.requests))
	}
	if !strings.Contains(stub.requests[0].UserPrompt, "Example Film") {
		t.Fatal("prompt should carry the movie title")
	}
}

func TestInitialDataRejectsTitleMismatch(t *testing.T) {
	stub := &stubCompleter{responses: []string{
		"movie_title: A Different Film\ncharacter_profile: x\n",
	}}
	svc := newTestService(t, stub)
	if _, err := svc.InitialData(context.Background(), "Example Film", "2001"); err == nil {
		t.Fatal("mismatched echoed title should discard the call")
	}
}

func TestInitialDataTitleEchoIsCaseInsensitive(t *testing.T) {
	stub := &stubCompleter{responses: []string{
		"movie_title: EXAMPLE film\nmovie_year: \"1999\"\ncharacter_profile: x\n",
	}}
	svc := newTestService(t, stub)
	got, err := svc.InitialData(context.Background(), "Example Film", "2001")
	if err != nil {
		t.Fatalf("InitialData: %v", err)
	}
	// The model's differing year is advisory only.
	if got.CharacterProfile != "x" {
		t.Fatalf("character_profile = %q", got.CharacterProfile)
	}
}

func TestInitialDataUnparseableResponse(t *testing.T) {
	stub := &stubCompleter{responses: []string{"I am sorry, I cannot help with that."}}
	svc := newTestService(t, stub)
	if _, err := svc.InitialData(context.Background(), "Example Film", "2001"); err == nil {
		t.Fatal("unparseable response should error")
	}
}

func TestCharactersAndRelationsNormalizesEdges(t *testing.T) {
	stub := &stubCompleter{responses: []string{strings.Join([]string{
		"character_list:",
		"  - name: Jane",
		"    actor_name: Ann Actor",
		"    description: The lead.",
		"    group: protagonists",
		"    aliases: [\"J\"]",
		"  - name: Mark",
		"    actor_name: Bob Actor",
		"    description: The rival.",
		"  - description: nameless, dropped",
		"relationships:",
		"  - source: jane",
		"    target: Mark",
		"    type: rivalry",
		"    sentiment: negative",
		"    strength: 4",
		"    tense: present",
		"  - source: Jane",
		"    target: J",
		"    sentiment: neutral",
		"    strength: 1",
		"    tense: past",
	}, "\n")}}
	svc := newTestService(t, stub)

	cast := []tmdb.CastMember{
		{CharacterName: "Jane", ActorName: "Ann Actor", PersonID: 11},
		{CharacterName: "Mark", ActorName: "Bob Actor", PersonID: 22},
	}
	roster, edges, err := svc.CharactersAndRelations(context.Background(), "Example Film", "2001", cast)
	if err != nil {
		t.Fatalf("CharactersAndRelations: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster length = %d, want 2: %+v", len(roster), roster)
	}
	if roster[0].TMDBPersonID != 11 {
		t.Fatalf("person id should backfill from cast, got %d", roster[0].TMDBPersonID)
	}
	if len(edges) != 1 {
		t.Fatalf("edges = %+v, want the single rivalry edge", edges)
	}
	if edges[0].Source != "Jane" || edges[0].Target != "Mark" || !edges[0].Directed {
		t.Fatalf("edge = %+v", edges[0])
	}
	if !strings.Contains(stub.requests[0].UserPrompt, "tmdb_person_id: 22") {
		t.Fatal("prompt should embed the cast context")
	}
}

func TestCharactersAndRelationsRequiresCast(t *testing.T) {
	stub := &stubCompleter{}
	svc := newTestService(t, stub)
	if _, _, err := svc.CharactersAndRelations(context.Background(), "Example Film", "2001", nil); err == nil {
		t.Fatal("empty cast should error before any call")
	}
	if len(stub.requests) != 0 {
		t.Fatalf("made %d calls, want 0", len(stub.requests))
	}
}

func TestCharactersBudgetScalesWithCast(t *testing.T) {
	stub := &stubCompleter{responses: []string{
		"character_list:\n  - name: Jane\n", "character_list:\n  - name: Jane\n",
	}}
	svc := newTestService(t, stub)
	small := []tmdb.CastMember{{CharacterName: "Jane", ActorName: "A", PersonID: 1}}
	large := append(small, tmdb.CastMember{CharacterName: "Mark", ActorName: "B", PersonID: 2})

	if _, _, err := svc.CharactersAndRelations(context.Background(), "Example Film", "2001", small); err != nil {
		t.Fatalf("small cast: %v", err)
	}
	if _, _, err := svc.CharactersAndRelations(context.Background(), "Example Film", "2001", large); err != nil {
		t.Fatalf("large cast: %v", err)
	}
	if stub.requests[1].MaxTokens <= stub.requests[0].MaxTokens {
		t.Fatalf("budget should grow with cast size: %d then %d",
			stub.requests[0].MaxTokens, stub.requests[1].MaxTokens)
	}
}

func TestAnalyticalDataDegradesPerField(t *testing.T) {
	stub := &stubCompleter{responses: []string{strings.Join([]string{
		"character_profile_big5:",
		"  openness: {score: 9, explanation: out of range}", // invalidates the profile
		"character_profile_myersbriggs: {type: entp, explanation: Inventive.}",
		"genre_mix: {Drama: 70, Thriller: 30}", // bare map form
		"matching_tags:",
		"  tags: {\"Everyday Magic\": \"Small wonders ground the plot.\"}",
		"recommendations:",
		"  - {title: Heat, year: \"1995\", explanation: Crime epic.}",
		"  - {title: \"\", year: \"1999\", explanation: dropped}",
	}, "\n")}}
	svc := newTestService(t, stub)

	got, err := svc.AnalyticalData(context.Background(), "Example Film", "2001")
	if err != nil {
		t.Fatalf("AnalyticalData: %v", err)
	}
	if got.Big5 != nil {
		t.Fatalf("invalid big-five should be absent, got %+v", got.Big5)
	}
	if got.MyersBriggs == nil || got.MyersBriggs.Type != "ENTP" {
		t.Fatalf("myers-briggs = %+v", got.MyersBriggs)
	}
	if got.GenreMix == nil || got.GenreMix.Genres["Drama"] != 70 {
		t.Fatalf("genre_mix = %+v", got.GenreMix)
	}
	if got.MatchingTags == nil || got.MatchingTags.Tags["Everyday Magic"] == "" {
		t.Fatalf("matching_tags = %+v", got.MatchingTags)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Title != "Heat" {
		t.Fatalf("recommendations = %+v", got.Recommendations)
	}
}

func TestAnalyticalDataDropsOutOfVocabularyTagSet(t *testing.T) {
	stub := &stubCompleter{responses: []string{strings.Join([]string{
		"character_profile_myersbriggs: {type: intj, explanation: Methodical.}",
		"genre_mix: {Thriller: 100}",
		"matching_tags:",
		"  tags: {\"Found Family\": \"The crew bonds.\"}", // not in the vocabulary
	}, "\n")}}
	svc := newTestService(t, stub)

	got, err := svc.AnalyticalData(context.Background(), "Example Film", "2001")
	if err != nil {
		t.Fatalf("AnalyticalData: %v", err)
	}
	if got.MatchingTags != nil {
		t.Fatalf("unknown tag should null the tag set, got %+v", got.MatchingTags)
	}
	if got.MyersBriggs == nil || got.GenreMix == nil {
		t.Fatalf("other fields must survive the bad tag set: %+v", got)
	}
}

func TestReviewSummarySkipsCallWithoutReviews(t *testing.T) {
	stub := &stubCompleter{}
	svc := newTestService(t, stub)
	got, err := svc.ReviewSummary(context.Background(), "Example Film", nil)
	if err != nil {
		t.Fatalf("ReviewSummary: %v", err)
	}
	if got != "" {
		t.Fatalf("summary = %q, want empty", got)
	}
	if len(stub.requests) != 0 {
		t.Fatalf("made %d calls, want 0", len(stub.requests))
	}
}

func TestReviewSummaryBoundsContext(t *testing.T) {
	stub := &stubCompleter{responses: []string{"```\nReviewers mostly praise it.\n```"}}
	svc := newTestService(t, stub)
	svc.budgets.MaxReviews = 2
	svc.budgets.MaxReviewLengthChars = 20

	reviews := []tmdb.Review{
		{Author: "alice", Content: strings.Repeat("long review text ", 10)},
		{Author: "", Content: "short"},
		{Author: "carol", Content: "never included, over the cap"},
	}
	got, err := svc.ReviewSummary(context.Background(), "Example Film", reviews)
	if err != nil {
		t.Fatalf("ReviewSummary: %v", err)
	}
	if got != "Reviewers mostly praise it." {
		t.Fatalf("summary = %q", got)
	}
	prompt := stub.requests[0].UserPrompt
	if !strings.Contains(prompt, "Review by alice:") {
		t.Fatal("first review missing from context")
	}
	if !strings.Contains(prompt, "Review by Unknown Author:") {
		t.Fatal("authorless review should get a placeholder")
	}
	if strings.Contains(prompt, "carol") {
		t.Fatal("third review should be cut by the review cap")
	}
	if !strings.Contains(prompt, "...") {
		t.Fatal("overlong review should be truncated with an ellipsis")
	}
}

func TestConstrainedPlotRequiresRoster(t *testing.T) {
	stub := &stubCompleter{}
	svc := newTestService(t, stub)
	got, err := svc.ConstrainedPlot(context.Background(), "Example Film", "2001", nil, nil)
	if err != nil {
		t.Fatalf("ConstrainedPlot: %v", err)
	}
	if got != "" || len(stub.requests) != 0 {
		t.Fatalf("empty roster should no-op, got %q after %d calls", got, len(stub.requests))
	}
}

func TestConstrainedPlotEmbedsRosterContext(t *testing.T) {
	stub := &stubCompleter{responses: []string{"Jane outwits Mark in the finale."}}
	svc := newTestService(t, stub)
	got, err := svc.ConstrainedPlot(context.Background(), "Example Film", "2001",
		roster("Jane", "Mark"),
		[]schema.Relationship{edge("Jane", "Mark", true)})
	if err != nil {
		t.Fatalf("ConstrainedPlot: %v", err)
	}
	if got != "Jane outwits Mark in the finale." {
		t.Fatalf("plot = %q", got)
	}
	prompt := stub.requests[0].UserPrompt
	if !strings.Contains(prompt, "character_list:") || !strings.Contains(prompt, "relationships:") {
		t.Fatal("prompt should embed roster and relationship context")
	}
}

func TestServicePropagatesTransportErrors(t *testing.T) {
	stub := &stubCompleter{err: errors.New("boom")}
	svc := newTestService(t, stub)
	if _, err := svc.AnalyticalData(context.Background(), "Example Film", "2001"); err == nil {
		t.Fatal("transport error should propagate")
	}
}

func TestLoadPromptsFromDirectoryRequiresEveryFile(t *testing.T) {
	dir := t.TempDir()
	if err := WritePromptSamples(dir); err != nil {
		t.Fatalf("WritePromptSamples: %v", err)
	}
	prompts, err := LoadPrompts(dir)
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	if prompts.InitialData == "" || prompts.ConstrainedPlot == "" {
		t.Fatal("prompts should load from the sample directory")
	}

	if err := os.Remove(filepath.Join(dir, "review_summary.txt")); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPrompts(dir); err == nil {
		t.Fatal("a configured prompt directory missing a file should error")
	}
}

func TestRenderTemplateReplacesAllMarkers(t *testing.T) {
	out := renderTemplate("See {movie_title} ({movie_year}) and {movie_title} again.",
		map[string]string{"movie_title": "Heat", "movie_year": "1995"})
	if out != "See Heat (1995) and Heat again." {
		t.Fatalf("rendered = %q", out)
	}
}
