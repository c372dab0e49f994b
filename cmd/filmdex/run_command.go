package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"filmdex/internal/catalog"
	"filmdex/internal/config"
	"filmdex/internal/enrich"
	"filmdex/internal/identity"
	"filmdex/internal/imagesearch"
	"filmdex/internal/llm"
	"filmdex/internal/logging"
	"filmdex/internal/omdb"
	"filmdex/internal/tmdb"
	"filmdex/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one enrichment pass over the configured candidate source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			release, err := catalog.AcquireLock(cfg.Paths.LockFile)
			if err != nil {
				return fmt.Errorf("another run appears to be active: %w", err)
			}
			defer release()

			cat, err := catalog.Open(cfg.Paths.OutputFile, logger)
			if err != nil {
				return err
			}

			engine, err := buildEngine(cfg, cat, logger)
			if err != nil {
				return err
			}
			logger.Info("starting enrichment run",
				logging.String("mode", cfg.Run.Mode),
				logging.String(logging.FieldSessionID, engine.SessionID()),
				logging.Int("known_movies", cat.Len()))
			return engine.Run(cmd.Context())
		},
	}
}

func buildEngine(cfg *config.Config, cat *catalog.Catalog, logger *slog.Logger) (*workflow.Engine, error) {
	prompts, err := enrich.LoadPrompts(cfg.Paths.PromptDir)
	if err != nil {
		return nil, err
	}

	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	enricher := enrich.NewService(completer, prompts, cfg.Budgets, logger)

	metadata := tmdb.NewClient(tmdb.Config{
		APIKey:    cfg.TMDB.APIKey,
		BaseURL:   cfg.TMDB.BaseURL,
		Language:  cfg.TMDB.Language,
		ImageURL:  cfg.TMDB.ImageURL,
		ImageSize: cfg.TMDB.ImageSize,
	})

	var resolver workflow.IDResolver
	if cfg.Enrichers.FetchIMDBIDs {
		var secondary identity.SecondarySearcher
		if cfg.OMDB.APIKey != "" {
			secondary = omdb.NewClient(omdb.Config{
				APIKey:  cfg.OMDB.APIKey,
				BaseURL: cfg.OMDB.BaseURL,
			})
		}
		resolver = identity.NewResolver(metadata, secondary, logger)
	}

	opts := []workflow.Option{}
	if cfg.Enrichers.FetchCharacterImages {
		var searcher workflow.ImageSearcher
		if cfg.ImageSearch.Enabled {
			searcher = imagesearch.NewClient(imagesearch.Config{
				BaseURL:        cfg.ImageSearch.BaseURL,
				TimeoutSeconds: cfg.ImageSearch.TimeoutSeconds,
			})
		}
		fetcher := workflow.NewImageFetcher(metadata, searcher,
			cfg.Paths.CharacterImageDir, cfg.Budgets.MaxCharacterImageLinks, logger)
		opts = append(opts, workflow.WithImageFetcher(fetcher))
	}

	return workflow.NewEngine(cfg, cat, metadata, enricher, resolver, logger, opts...), nil
}
