package config

import (
	"fmt"
	"os"
	"strings"
)

// normalize trims values, expands filesystem paths, and applies environment
// fallbacks for credentials. Config file values win over the environment.
func (c *Config) normalize() error {
	if err := c.Paths.normalize(); err != nil {
		return err
	}

	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	c.TMDB.ImageURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageURL), "/")
	c.TMDB.ImageSize = strings.TrimSpace(c.TMDB.ImageSize)
	if c.TMDB.APIKey == "" {
		if key, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(key)
		}
	}

	c.OMDB.APIKey = strings.TrimSpace(c.OMDB.APIKey)
	c.OMDB.BaseURL = strings.TrimSpace(c.OMDB.BaseURL)
	if c.OMDB.APIKey == "" {
		if key, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDB.APIKey = strings.TrimSpace(key)
		}
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.APIKey == "" {
		for _, name := range []string{"FILMDEX_LLM_API_KEY", "OPENROUTER_API_KEY"} {
			if key, ok := os.LookupEnv(name); ok && strings.TrimSpace(key) != "" {
				c.LLM.APIKey = strings.TrimSpace(key)
				break
			}
		}
	}

	c.ImageSearch.BaseURL = strings.TrimRight(strings.TrimSpace(c.ImageSearch.BaseURL), "/")

	c.Run.Mode = strings.ToLower(strings.TrimSpace(c.Run.Mode))
	c.Run.KeysToUpdate = normalizeStringList(c.Run.KeysToUpdate)
	c.Run.RefreshTitles = normalizeStringList(c.Run.RefreshTitles)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}

func (p *Paths) normalize() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"output_file", &p.OutputFile},
		{"log_dir", &p.LogDir},
		{"prompt_dir", &p.PromptDir},
		{"character_image_dir", &p.CharacterImageDir},
		{"lock_file", &p.LockFile},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			*field.value = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("expand %s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func normalizeStringList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
