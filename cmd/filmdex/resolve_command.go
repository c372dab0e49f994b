package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filmdex/internal/identity"
	"filmdex/internal/omdb"
	"filmdex/internal/tmdb"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var year string

	cmd := &cobra.Command{
		Use:   "resolve TITLE",
		Short: "Resolve a movie title to an IMDb id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			primary := tmdb.NewClient(tmdb.Config{
				APIKey:   cfg.TMDB.APIKey,
				BaseURL:  cfg.TMDB.BaseURL,
				Language: cfg.TMDB.Language,
			})
			var secondary identity.SecondarySearcher
			if cfg.OMDB.APIKey != "" {
				secondary = omdb.NewClient(omdb.Config{
					APIKey:  cfg.OMDB.APIKey,
					BaseURL: cfg.OMDB.BaseURL,
				})
			}
			resolver := identity.NewResolver(primary, secondary, logger)

			id, err := resolver.Resolve(cmd.Context(), identity.Ref{
				TitleOrID: args[0],
				YearHint:  year,
			})
			if err != nil {
				return err
			}
			if id == "" {
				return fmt.Errorf("no IMDb id found for %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "Release year hint")
	return cmd
}
