package schema

import "fmt"

// FieldGroup names a set of record fields computed together by one enricher.
type FieldGroup string

const (
	GroupInitialData            FieldGroup = "initial_data"
	GroupCharactersAndRelations FieldGroup = "characters_and_relations"
	GroupAnalyticalData         FieldGroup = "analytical_data"
	GroupReviewSummary          FieldGroup = "review_summary"
	GroupConstrainedPlot        FieldGroup = "constrained_plot"
	GroupFetchIMDBIDs           FieldGroup = "fetch_imdb_ids"
)

// AllGroups lists every field group in enricher invocation order. Characters
// must come before the constrained plot, which consumes the roster.
var AllGroups = []FieldGroup{
	GroupInitialData,
	GroupCharactersAndRelations,
	GroupAnalyticalData,
	GroupReviewSummary,
	GroupConstrainedPlot,
	GroupFetchIMDBIDs,
}

// FieldToGroup maps every updatable record field name to the group that
// computes it. Identity fields (movie_title, movie_year, tmdb_movie_id) are
// not listed: they come from the candidate source, not from an enricher.
var FieldToGroup = map[string]FieldGroup{
	"character_profile":               GroupInitialData,
	"critical_reception":              GroupInitialData,
	"visual_style":                    GroupInitialData,
	"most_talked_about_related_topic": GroupInitialData,
	"complex_search_queries":          GroupInitialData,
	"sequel":                          GroupInitialData,
	"prequel":                         GroupInitialData,
	"spin_off_of":                     GroupInitialData,
	"spin_off":                        GroupInitialData,
	"remake_of":                       GroupInitialData,
	"remake":                          GroupInitialData,

	"character_list": GroupCharactersAndRelations,
	"relationships":  GroupCharactersAndRelations,

	"character_profile_big5":        GroupAnalyticalData,
	"character_profile_myersbriggs": GroupAnalyticalData,
	"genre_mix":                     GroupAnalyticalData,
	"matching_tags":                 GroupAnalyticalData,
	"recommendations":               GroupAnalyticalData,

	"tmdb_user_review_summary": GroupReviewSummary,

	"plot_with_character_constraints_and_relations": GroupConstrainedPlot,

	"imdb_id": GroupFetchIMDBIDs,
}

// VerifyFieldGroups checks that every mapped field names a known group. Called
// once at startup so a typo in the table fails loudly instead of silently
// never matching an update policy.
func VerifyFieldGroups() error {
	known := make(map[FieldGroup]struct{}, len(AllGroups))
	for _, group := range AllGroups {
		known[group] = struct{}{}
	}
	for field, group := range FieldToGroup {
		if _, ok := known[group]; !ok {
			return fmt.Errorf("field %q maps to unknown group %q", field, group)
		}
	}
	return nil
}

// GroupsForFields translates an update-policy list into the set of groups to
// run. Entries may name either a record field or a group directly. Unknown
// names are reported so a misspelled policy entry does not silently skip
// work.
func GroupsForFields(fields []string) (map[FieldGroup]struct{}, []string) {
	known := make(map[FieldGroup]struct{}, len(AllGroups))
	for _, group := range AllGroups {
		known[group] = struct{}{}
	}
	groups := make(map[FieldGroup]struct{})
	var unknown []string
	for _, field := range fields {
		if _, ok := known[FieldGroup(field)]; ok {
			groups[FieldGroup(field)] = struct{}{}
			continue
		}
		group, ok := FieldToGroup[field]
		if !ok {
			unknown = append(unknown, field)
			continue
		}
		groups[group] = struct{}{}
	}
	return groups, unknown
}
