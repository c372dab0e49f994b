package enrich

import (
	"log/slog"
	"strings"

	"filmdex/internal/logging"
	"filmdex/internal/schema"
)

// NormalizeRelationships canonicalizes relationship edges against the
// character roster. Source and target are resolved case-insensitively
// through canonical names and aliases, unknown and self edges are dropped,
// and duplicate pairs are removed. An undirected edge claims the pair in both
// directions; two directed edges on the same pair survive only when they
// point opposite ways. With an empty roster the raw edges pass through
// unchanged; normalization without a roster would drop everything.
func NormalizeRelationships(roster []schema.CharacterListItem, raw []schema.Relationship, logger *slog.Logger) []schema.Relationship {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(roster) == 0 {
		return raw
	}

	canonical := make(map[string]string)
	for _, character := range roster {
		name := strings.TrimSpace(character.Name)
		if name == "" {
			continue
		}
		canonical[schema.FoldKey(name)] = name
		for _, alias := range character.Aliases {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				continue
			}
			canonical[schema.FoldKey(alias)] = name
		}
	}

	type pair struct{ a, b string }
	seenUndirected := make(map[pair]struct{})
	seenDirected := make(map[pair]struct{})
	unorderedKey := func(a, b string) pair {
		if a > b {
			a, b = b, a
		}
		return pair{a, b}
	}

	var out []schema.Relationship
	for _, edge := range raw {
		source := strings.TrimSpace(edge.Source)
		target := strings.TrimSpace(edge.Target)
		if source == "" || target == "" {
			continue
		}
		resolvedSource, ok := canonical[schema.FoldKey(source)]
		if !ok {
			logger.Debug("dropping edge with unknown source", logging.String("source", source))
			continue
		}
		resolvedTarget, ok := canonical[schema.FoldKey(target)]
		if !ok {
			logger.Debug("dropping edge with unknown target", logging.String("target", target))
			continue
		}
		if resolvedSource == resolvedTarget {
			logger.Debug("dropping self edge", logging.String("character", resolvedSource))
			continue
		}

		if edge.Directed {
			ordered := pair{resolvedSource, resolvedTarget}
			if _, dup := seenDirected[ordered]; dup {
				continue
			}
			if _, dup := seenUndirected[unorderedKey(resolvedSource, resolvedTarget)]; dup {
				continue
			}
			seenDirected[ordered] = struct{}{}
		} else {
			unordered := unorderedKey(resolvedSource, resolvedTarget)
			if _, dup := seenUndirected[unordered]; dup {
				continue
			}
			if _, dup := seenDirected[pair{resolvedSource, resolvedTarget}]; dup {
				continue
			}
			if _, dup := seenDirected[pair{resolvedTarget, resolvedSource}]; dup {
				continue
			}
			seenUndirected[unordered] = struct{}{}
		}

		edge.Source = resolvedSource
		edge.Target = resolvedTarget
		out = append(out, edge)
	}
	return out
}
