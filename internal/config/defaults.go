package config

// Default configuration values.
const (
	DefaultOutputFile        = "~/filmdex/movies.yaml"
	DefaultLogDir            = "~/filmdex/logs"
	DefaultPromptDir         = ""
	DefaultCharacterImageDir = "~/filmdex/character_images"
	DefaultLockFile          = "~/filmdex/filmdex.lock"

	DefaultTMDBBaseURL   = "https://api.themoviedb.org/3"
	DefaultTMDBLanguage  = "en-US"
	DefaultTMDBImageURL  = "https://image.tmdb.org/t/p"
	DefaultTMDBImageSize = "w500"

	DefaultOMDBBaseURL = "https://www.omdbapi.com/"

	DefaultLLMBaseURL        = "https://openrouter.ai/api/v1"
	DefaultLLMModel          = "openai/gpt-4o-mini"
	DefaultLLMTimeoutSeconds = 120

	DefaultImageSearchBaseURL        = "https://duckduckgo.com"
	DefaultImageSearchTimeoutSeconds = 30

	DefaultRunMode               = ModeDiscover
	DefaultNewMovieQuota         = 5
	DefaultMaxListingPages       = 10
	DefaultCandidateDelaySeconds = 5
	DefaultPageDelaySeconds      = 2

	DefaultWordsToTokensRatio     = 1.4
	DefaultInitialWords           = 700
	DefaultAnalyticalWords        = 500
	DefaultReviewSummaryWords     = 250
	DefaultConstrainedPlotWords   = 600
	DefaultCharactersBaseWords    = 200
	DefaultCharacterDescWords     = 120
	DefaultCharacterRelWords      = 40
	DefaultMaxCharacters          = 10
	DefaultMaxReviews             = 5
	DefaultMaxReviewLengthChars   = 2000
	DefaultMaxCharacterImageLinks = 3

	DefaultLogFormat = "auto"
	DefaultLogLevel  = "info"
)

// Default returns a configuration populated with default values. API keys are
// left empty so normalize can pull them from the environment.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputFile:        DefaultOutputFile,
			LogDir:            DefaultLogDir,
			PromptDir:         DefaultPromptDir,
			CharacterImageDir: DefaultCharacterImageDir,
			LockFile:          DefaultLockFile,
		},
		TMDB: TMDB{
			BaseURL:   DefaultTMDBBaseURL,
			Language:  DefaultTMDBLanguage,
			ImageURL:  DefaultTMDBImageURL,
			ImageSize: DefaultTMDBImageSize,
		},
		OMDB: OMDB{
			BaseURL: DefaultOMDBBaseURL,
		},
		LLM: LLM{
			BaseURL:        DefaultLLMBaseURL,
			Model:          DefaultLLMModel,
			TimeoutSeconds: DefaultLLMTimeoutSeconds,
		},
		ImageSearch: ImageSearch{
			Enabled:        false,
			BaseURL:        DefaultImageSearchBaseURL,
			TimeoutSeconds: DefaultImageSearchTimeoutSeconds,
		},
		Enrichers: Enrichers{
			InitialData:            true,
			CharactersAndRelations: true,
			AnalyticalData:         true,
			ReviewSummary:          true,
			ConstrainedPlot:        true,
			FetchIMDBIDs:           true,
			FetchCharacterImages:   false,
		},
		Run: Run{
			Mode:                  DefaultRunMode,
			UpdateExisting:        false,
			NewMovieQuota:         DefaultNewMovieQuota,
			MaxListingPages:       DefaultMaxListingPages,
			CandidateDelaySeconds: DefaultCandidateDelaySeconds,
			PageDelaySeconds:      DefaultPageDelaySeconds,
		},
		Budgets: Budgets{
			WordsToTokensRatio:     DefaultWordsToTokensRatio,
			InitialWords:           DefaultInitialWords,
			AnalyticalWords:        DefaultAnalyticalWords,
			ReviewSummaryWords:     DefaultReviewSummaryWords,
			ConstrainedPlotWords:   DefaultConstrainedPlotWords,
			CharactersBaseWords:    DefaultCharactersBaseWords,
			CharacterDescWords:     DefaultCharacterDescWords,
			CharacterRelWords:      DefaultCharacterRelWords,
			MaxCharacters:          DefaultMaxCharacters,
			MaxReviews:             DefaultMaxReviews,
			MaxReviewLengthChars:   DefaultMaxReviewLengthChars,
			MaxCharacterImageLinks: DefaultMaxCharacterImageLinks,
		},
		Logging: Logging{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
	}
}
