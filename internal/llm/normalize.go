package llm

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"filmdex/internal/logging"
)

// PreviewLimit bounds the content preview attached to parse diagnostics.
const PreviewLimit = 160

var (
	fencedBlockRe = regexp.MustCompile(`(?is)^\s*` + "```" + `(?:[a-zA-Z0-9\-_]+)?\s*(.*?)\s*` + "```" + `\s*$`)
	langLineRe    = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)
)

// StripCodeFences removes wrapping code-fence markup, iterating until a fixed
// point so nested and doubled fences unwrap completely. Language tags on the
// fence line or on their own leading line are removed as well.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	for {
		previous := text

		if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
			text = strings.TrimSpace(m[1])
			continue
		}

		// Opening fence without a matching close.
		if strings.HasPrefix(text, "```") {
			text = text[3:]
			if idx := strings.IndexByte(text, '\n'); idx >= 0 {
				firstLine := strings.TrimSpace(text[:idx])
				if len(firstLine) < 10 && langLineRe.MatchString(firstLine) {
					text = text[idx+1:]
				}
			}
			text = strings.TrimSpace(text)
		}
		if strings.HasSuffix(text, "```") {
			text = strings.TrimSpace(text[:len(text)-3])
		}

		// Bare language prefix with no fence at all.
		lower := strings.ToLower(text)
		switch {
		case strings.HasPrefix(lower, "json\n"), strings.HasPrefix(lower, "yaml\n"):
			text = strings.TrimSpace(text[5:])
		case strings.HasPrefix(lower, "json "), strings.HasPrefix(lower, "yaml "):
			text = strings.TrimSpace(text[5:])
		}

		text = strings.TrimSpace(text)
		if text == previous {
			return text
		}
	}
}

// Normalize turns raw model output into a generic mapping. It strips fence
// markup, then tries a strict JSON parse and falls back to YAML. Anything
// that is not a key-value mapping in either format yields nil. Failure is
// silent at this layer; callers decide escalation.
func Normalize(raw string) map[string]any {
	result, _ := normalize(raw)
	return result
}

// NormalizeWithLog is Normalize with the failure paths reported to the
// supplied logger, including a bounded content preview.
func NormalizeWithLog(logger *slog.Logger, context, raw string) map[string]any {
	if logger == nil {
		logger = logging.NewNop()
	}
	result, reason := normalize(raw)
	if result == nil && reason != "" {
		logger.Warn("llm response not usable",
			logging.String("context", context),
			logging.String("reason", reason),
			logging.String("preview", summarizeSnippet(raw)))
	}
	return result
}

func normalize(raw string) (map[string]any, string) {
	if strings.TrimSpace(raw) == "" {
		return nil, "empty response"
	}
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, "empty after fence stripping"
	}

	var viaJSON any
	if err := json.Unmarshal([]byte(cleaned), &viaJSON); err == nil {
		if mapping, ok := viaJSON.(map[string]any); ok {
			return mapping, ""
		}
		// Valid JSON but a list or scalar; YAML would parse it the same way.
		return nil, "parsed but not a mapping"
	}

	var viaYAML any
	if err := yaml.Unmarshal([]byte(cleaned), &viaYAML); err != nil {
		return nil, "neither valid JSON nor valid YAML"
	}
	if mapping, ok := viaYAML.(map[string]any); ok {
		return mapping, ""
	}
	return nil, "parsed but not a mapping"
}

func summarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(trimmed)), " ")
	runes := []rune(clean)
	if len(runes) > PreviewLimit {
		clean = string(runes[:PreviewLimit]) + "..."
	}
	return clean
}
