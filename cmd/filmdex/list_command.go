package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"filmdex/internal/catalog"
	"filmdex/internal/schema"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the persisted movie collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, err := catalog.Open(cfg.Paths.OutputFile, nil)
			if err != nil {
				return err
			}

			records := cat.Records()
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Collection is empty.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.MovieTitle,
					record.MovieYear,
					formatID(record.TMDBMovieID),
					record.IMDBID,
					coverageSummary(record),
				})
			}
			out := renderTable(
				[]string{"Title", "Year", "TMDB", "IMDb", "Enriched"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			fmt.Fprintf(cmd.OutOrStdout(), "%d movies in %s\n", len(records), cfg.Paths.OutputFile)
			return nil
		},
	}
}

func formatID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// coverageSummary names the field groups that hold data in the record.
func coverageSummary(record schema.MovieRecord) string {
	var groups []string
	if record.CharacterProfile != "" {
		groups = append(groups, string(schema.GroupInitialData))
	}
	if len(record.CharacterList) > 0 {
		groups = append(groups, string(schema.GroupCharactersAndRelations))
	}
	if record.GenreMix != nil || record.CharacterProfileMyersBriggs != nil || len(record.Recommendations) > 0 {
		groups = append(groups, string(schema.GroupAnalyticalData))
	}
	if record.TMDBUserReviewSummary != "" {
		groups = append(groups, string(schema.GroupReviewSummary))
	}
	if record.ConstrainedPlot != "" {
		groups = append(groups, string(schema.GroupConstrainedPlot))
	}
	if record.IMDBID != "" {
		groups = append(groups, string(schema.GroupFetchIMDBIDs))
	}
	if len(groups) == 0 {
		return "-"
	}
	return strings.Join(groups, ", ")
}
