package rag

import "strings"

const maxSubQueries = 4

// comparisonMarkers trigger comparison handling when present in a query.
var comparisonMarkers = []string{"compare", "versus", " vs ", "difference between"}

// entityVocabulary is the fixed set of recognized entity names, matched in
// this order so decomposition output is deterministic. This is a heuristic
// convenience for the manufacturing-spec corpus, not general NLU: only these
// hardcoded entities are ever recognized.
var entityVocabulary = []string{
	"steps",
	"activities",
	"parameters",
	"materials",
	"specifications",
	"recipes",
	"equipment",
	"reports",
}

// IsComparison reports whether the query contains a comparison marker,
// case-insensitively.
func IsComparison(query string) bool {
	lower := strings.ToLower(query)
	for _, marker := range comparisonMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// DecomposeComparison splits a multi-entity comparison question into
// per-entity sub-queries. Each recognized entity yields one sub-query built
// from the entity name plus the trimmed remainder of the question (the text
// after the last comparison or "of" marker). The result is capped at
// maxSubQueries and ordered by vocabulary order.
func DecomposeComparison(query string) []string {
	lower := strings.ToLower(query)

	var entities []string
	for _, entity := range entityVocabulary {
		if strings.Contains(lower, entity) {
			entities = append(entities, entity)
			if len(entities) == maxSubQueries {
				break
			}
		}
	}
	if len(entities) == 0 {
		return nil
	}

	remainder := queryRemainder(lower)

	subQueries := make([]string, 0, len(entities))
	for _, entity := range entities {
		if remainder == "" || remainder == entity {
			subQueries = append(subQueries, entity)
			continue
		}
		subQueries = append(subQueries, entity+" "+remainder)
	}
	return subQueries
}

// queryRemainder extracts the topic tail of a lower-cased comparison query:
// the text after the last " of ", or failing that the text after the first
// comparison marker. Entity names are stripped from the tail so sub-queries
// don't repeat them.
func queryRemainder(lower string) string {
	var tail string
	if idx := strings.LastIndex(lower, " of "); idx >= 0 {
		tail = lower[idx+len(" of "):]
	} else {
		for _, marker := range comparisonMarkers {
			if idx := strings.Index(lower, marker); idx >= 0 {
				tail = lower[idx+len(marker):]
				break
			}
		}
	}

	tail = strings.Trim(tail, " ?.!,")
	if tail == "" {
		return ""
	}

	words := strings.Fields(tail)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		stripped := strings.Trim(word, "?.!,")
		if stripped == "and" || stripped == "or" || isEntity(stripped) {
			continue
		}
		kept = append(kept, stripped)
	}
	return strings.Join(kept, " ")
}

func isEntity(word string) bool {
	for _, entity := range entityVocabulary {
		if word == entity {
			return true
		}
	}
	return false
}
