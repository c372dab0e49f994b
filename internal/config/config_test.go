package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("OMDB_API_KEY", "")
	path := writeConfig(t, `
[tmdb]
api_key = "tmdb-key"

[omdb]
api_key = "omdb-key"

[llm]
api_key = "llm-key"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.TMDB.BaseURL != DefaultTMDBBaseURL {
		t.Fatalf("TMDB base URL = %q, want default", cfg.TMDB.BaseURL)
	}
	if cfg.Run.Mode != "discover" {
		t.Fatalf("run mode = %q, want discover", cfg.Run.Mode)
	}
	if cfg.Budgets.MaxCharacters != DefaultMaxCharacters {
		t.Fatalf("max characters = %d, want %d", cfg.Budgets.MaxCharacters, DefaultMaxCharacters)
	}
}

func TestLoadRequiresTMDBKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	path := writeConfig(t, `
[llm]
api_key = "llm-key"

[omdb]
api_key = "omdb-key"
`)

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for missing TMDB key")
	}
	if !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("error %q does not mention tmdb.api_key", err)
	}
}

func TestLoadReadsCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("OMDB_API_KEY", "env-omdb")
	t.Setenv("FILMDEX_LLM_API_KEY", "env-llm")
	path := writeConfig(t, "")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "env-tmdb" {
		t.Fatalf("TMDB key = %q, want env-tmdb", cfg.TMDB.APIKey)
	}
	if cfg.OMDB.APIKey != "env-omdb" {
		t.Fatalf("OMDB key = %q, want env-omdb", cfg.OMDB.APIKey)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Fatalf("LLM key = %q, want env-llm", cfg.LLM.APIKey)
	}
}

func TestConfigFileWinsOverEnvironment(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("FILMDEX_LLM_API_KEY", "llm-key")
	path := writeConfig(t, `
[tmdb]
api_key = "file-tmdb"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "file-tmdb" {
		t.Fatalf("TMDB key = %q, want file value to win", cfg.TMDB.APIKey)
	}
}

func TestRefreshModeRequiresTitles(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("FILMDEX_LLM_API_KEY", "llm-key")
	path := writeConfig(t, `
[run]
mode = "refresh"
`)

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for refresh mode without titles")
	}
	if !strings.Contains(err.Error(), "refresh_titles") {
		t.Fatalf("error %q does not mention refresh_titles", err)
	}
}

func TestRejectsUnknownRunMode(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("FILMDEX_LLM_API_KEY", "llm-key")
	path := writeConfig(t, `
[run]
mode = "turbo"
`)

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for unknown mode")
	}
	if !strings.Contains(err.Error(), "run.mode") {
		t.Fatalf("error %q does not mention run.mode", err)
	}
}

func TestNormalizeExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("FILMDEX_LLM_API_KEY", "llm-key")
	path := writeConfig(t, `
[paths]
output_file = "~/collection/movies.yaml"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if strings.HasPrefix(cfg.Paths.OutputFile, "~") {
		t.Fatalf("output file %q was not expanded", cfg.Paths.OutputFile)
	}
	if !filepath.IsAbs(cfg.Paths.OutputFile) {
		t.Fatalf("output file %q is not absolute", cfg.Paths.OutputFile)
	}
}

func TestLoadMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("FILMDEX_LLM_API_KEY", "llm-key")
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, _, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.LLM.Model != DefaultLLMModel {
		t.Fatalf("model = %q, want default", cfg.LLM.Model)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("FILMDEX_LLM_API_KEY", "llm-key")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load of sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("sample config not found after CreateSample")
	}
	if cfg.Run.Mode != "discover" {
		t.Fatalf("sample run mode = %q, want discover", cfg.Run.Mode)
	}
}
