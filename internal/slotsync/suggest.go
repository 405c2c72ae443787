package slotsync

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// minSuggestionSimilarity drops options that only share a few letters.
const minSuggestionSimilarity = 0.7

type suggestion struct {
	option     string
	similarity float64
}

// Suggest ranks the offered product options by how similar they are to the
// wanted name and returns at most limit of them.
func Suggest(wanted string, offered []string, limit int) []string {
	wanted = strings.ToLower(strings.TrimSpace(wanted))
	if wanted == "" || limit <= 0 {
		return nil
	}

	var ranked []suggestion
	seen := make(map[string]struct{})
	for _, option := range offered {
		if _, ok := seen[option]; ok {
			continue
		}
		seen[option] = struct{}{}

		similarity := matchr.JaroWinkler(wanted, strings.ToLower(option), false)
		if similarity < minSuggestionSimilarity {
			continue
		}
		ranked = append(ranked, suggestion{option: option, similarity: similarity})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.option
	}
	return out
}
