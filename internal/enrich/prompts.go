package enrich

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompts/*.txt
var defaultPrompts embed.FS

// Prompts holds the user-prompt templates for the five model calls.
// Templates use {placeholder} markers substituted at call time.
type Prompts struct {
	InitialData            string
	CharactersAndRelations string
	AnalyticalData         string
	ReviewSummary          string
	ConstrainedPlot        string
}

var promptFiles = map[string]func(*Prompts) *string{
	"initial_data.txt":             func(p *Prompts) *string { return &p.InitialData },
	"characters_and_relations.txt": func(p *Prompts) *string { return &p.CharactersAndRelations },
	"analytical_data.txt":          func(p *Prompts) *string { return &p.AnalyticalData },
	"review_summary.txt":           func(p *Prompts) *string { return &p.ReviewSummary },
	"constrained_plot.txt":         func(p *Prompts) *string { return &p.ConstrainedPlot },
}

// LoadPrompts returns the prompt set. With an empty dir the embedded defaults
// are used. With a configured dir every template file must exist there; a
// missing file is a configuration error and aborts the run.
func LoadPrompts(dir string) (*Prompts, error) {
	prompts := &Prompts{}
	for name, field := range promptFiles {
		var body []byte
		var err error
		if dir == "" {
			body, err = defaultPrompts.ReadFile("prompts/" + name)
		} else {
			body, err = os.ReadFile(filepath.Join(dir, name))
		}
		if err != nil {
			return nil, fmt.Errorf("load prompt %s: %w", name, err)
		}
		*field(prompts) = string(body)
	}
	return prompts, nil
}

// WritePromptSamples materializes the embedded templates into dir so they can
// be customized.
func WritePromptSamples(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for name := range promptFiles {
		body, err := defaultPrompts.ReadFile("prompts/" + name)
		if err != nil {
			return fmt.Errorf("read embedded prompt %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			return fmt.Errorf("write prompt %s: %w", name, err)
		}
	}
	return nil
}

// renderTemplate substitutes {name} markers with the supplied values.
func renderTemplate(template string, values map[string]string) string {
	out := template
	for name, value := range values {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
