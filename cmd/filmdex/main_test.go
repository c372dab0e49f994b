package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmdex/internal/catalog"
	"filmdex/internal/schema"
)

func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		"[paths]",
		"output_file = " + tomlQuote(filepath.Join(dir, "movies.yaml")),
		"log_dir = " + tomlQuote(filepath.Join(dir, "logs")),
		"lock_file = " + tomlQuote(filepath.Join(dir, "filmdex.lock")),
		"character_image_dir = " + tomlQuote(filepath.Join(dir, "images")),
		"",
		"[tmdb]",
		"api_key = \"test-tmdb-key\"",
		"",
		"[omdb]",
		"api_key = \"test-omdb-key\"",
		"",
		"[llm]",
		"api_key = \"test-llm-key\"",
		"model = \"test-model\"",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func tomlQuote(path string) string {
	return "\"" + strings.ReplaceAll(path, "\\", "\\\\") + "\""
}

func TestConfigInitWritesConfigAndPrompts(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("output = %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	prompts := filepath.Join(filepath.Dir(target), "prompts")
	entries, err := os.ReadDir(prompts)
	if err != nil {
		t.Fatalf("expected prompts directory: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 prompt templates, found %d", len(entries))
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCLI(t, []string{"config", "init", "--path", target}); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestListRendersCollection(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, []string{"--config", configPath, "list"})
	if err != nil {
		t.Fatalf("list on empty collection: %v", err)
	}
	if !strings.Contains(out, "Collection is empty") {
		t.Fatalf("output = %q", out)
	}

	// Seed one record, list again.
	dir := filepath.Dir(configPath)
	cat, err := catalog.Open(filepath.Join(dir, "movies.yaml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	record := schema.MovieRecord{
		MovieTitle:  "Example Film",
		MovieYear:   "2001",
		TMDBMovieID: 42,
		IMDBID:      "tt0000042",
	}
	record.Finalize()
	if err := cat.Upsert(record); err != nil {
		t.Fatal(err)
	}

	out, err = runCLI(t, []string{"--config", configPath, "list"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Example Film", "2001", "tt0000042", "1 movies in"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q: %s", want, out)
		}
	}
}

func TestResolveRequiresTitle(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, []string{"--config", configPath, "resolve"}); err == nil {
		t.Fatal("resolve without a title should fail")
	}
}

func TestCoverageSummary(t *testing.T) {
	record := schema.MovieRecord{
		CharacterProfile: "x",
		IMDBID:           "tt0000001",
	}
	got := coverageSummary(record)
	if !strings.Contains(got, "initial_data") || !strings.Contains(got, "fetch_imdb_ids") {
		t.Fatalf("coverage = %q", got)
	}
	if strings.Contains(got, "analytical_data") {
		t.Fatalf("coverage should omit empty groups: %q", got)
	}
	if coverageSummary(schema.MovieRecord{}) != "-" {
		t.Fatal("empty record should render a dash")
	}
}
