package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory configuration.
type Paths struct {
	OutputFile        string `toml:"output_file"`
	LogDir            string `toml:"log_dir"`
	PromptDir         string `toml:"prompt_dir"`
	CharacterImageDir string `toml:"character_image_dir"`
	LockFile          string `toml:"lock_file"`
}

// TMDB contains configuration for the primary metadata provider.
type TMDB struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	Language  string `toml:"language"`
	ImageURL  string `toml:"image_base_url"`
	ImageSize string `toml:"image_size"`
}

// OMDB contains configuration for the secondary metadata provider.
type OMDB struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// LLM contains the chat-completion connection settings shared by all enrichers.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ImageSearch contains configuration for the fallback image search engine.
type ImageSearch struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Enrichers toggles the per-field-group enrichment steps.
type Enrichers struct {
	InitialData            bool `toml:"initial_data"`
	CharactersAndRelations bool `toml:"characters_and_relations"`
	AnalyticalData         bool `toml:"analytical_data"`
	ReviewSummary          bool `toml:"review_summary"`
	ConstrainedPlot        bool `toml:"constrained_plot"`
	FetchIMDBIDs           bool `toml:"fetch_imdb_ids"`
	FetchCharacterImages   bool `toml:"fetch_character_images"`
}

// Run modes.
const (
	ModeDiscover = "discover"
	ModeRefresh  = "refresh"
)

// Run controls candidate sourcing, quotas, the update policy, and pacing.
type Run struct {
	Mode                  string   `toml:"mode"` // "discover" or "refresh"
	UpdateExisting        bool     `toml:"update_existing"`
	KeysToUpdate          []string `toml:"keys_to_update"`
	RefreshTitles         []string `toml:"refresh_titles"`
	NewMovieQuota         int      `toml:"new_movie_quota"`
	MaxListingPages       int      `toml:"max_listing_pages"`
	CandidateDelaySeconds int      `toml:"candidate_delay_seconds"`
	PageDelaySeconds      int      `toml:"page_delay_seconds"`
}

// Budgets controls prompt token budgets and provider fetch limits.
type Budgets struct {
	WordsToTokensRatio     float64 `toml:"words_to_tokens_ratio"`
	InitialWords           int     `toml:"initial_words"`
	AnalyticalWords        int     `toml:"analytical_words"`
	ReviewSummaryWords     int     `toml:"review_summary_words"`
	ConstrainedPlotWords   int     `toml:"constrained_plot_words"`
	CharactersBaseWords    int     `toml:"characters_base_words"`
	CharacterDescWords     int     `toml:"character_desc_words"`
	CharacterRelWords      int     `toml:"character_rel_words"`
	MaxCharacters          int     `toml:"max_characters"`
	MaxReviews             int     `toml:"max_reviews"`
	MaxReviewLengthChars   int     `toml:"max_review_length_chars"`
	MaxCharacterImageLinks int     `toml:"max_character_image_links"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for filmdex.
//
// Configuration sections by subsystem:
//   - Paths: collection file, prompt templates, logs, character images
//   - TMDB: primary metadata provider (listing, search, cast, reviews)
//   - OMDB: secondary metadata provider (IMDb id search)
//   - LLM: chat-completion connection settings
//   - ImageSearch: fallback character image lookup
//   - Enrichers: per-field-group activation switches
//   - Run: candidate sourcing mode, update policy, quotas, pacing
//   - Budgets: prompt word budgets and provider fetch limits
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	TMDB        TMDB        `toml:"tmdb"`
	OMDB        OMDB        `toml:"omdb"`
	LLM         LLM         `toml:"llm"`
	ImageSearch ImageSearch `toml:"image_search"`
	Enrichers   Enrichers   `toml:"enrichers"`
	Run         Run         `toml:"run"`
	Budgets     Budgets     `toml:"budgets"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/filmdex/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("filmdex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for a run.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.OutputFile)}
	if c.Enrichers.FetchCharacterImages && strings.TrimSpace(c.Paths.CharacterImageDir) != "" {
		dirs = append(dirs, c.Paths.CharacterImageDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
