package search

import (
	"strings"

	"github.com/poiesic/sitesearch/index"
)

// Relevance weights for a query word found in each field.
const (
	sectionTitleWeight = 3
	itemTitleWeight    = 2
	tagWeight          = 2
)

// queryWords lowercases the query and splits it on whitespace.
func queryWords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// matchesQuery reports whether the lowercase query appears as a substring of
// the section's plain text, its section title, its item title, or a tag.
func matchesQuery(s *index.SearchableSection, q string) bool {
	if strings.Contains(strings.ToLower(s.PlainText), q) ||
		strings.Contains(strings.ToLower(s.SectionTitle), q) ||
		strings.Contains(strings.ToLower(s.ItemTitle), q) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// relevance scores a section against the query words.
func relevance(s *index.SearchableSection, words []string) float64 {
	plain := strings.ToLower(s.PlainText)
	sectionTitle := strings.ToLower(s.SectionTitle)
	itemTitle := strings.ToLower(s.ItemTitle)
	tags := make([]string, len(s.Tags))
	for i, tag := range s.Tags {
		tags[i] = strings.ToLower(tag)
	}

	score := 0
	for _, w := range words {
		if strings.Contains(sectionTitle, w) {
			score += sectionTitleWeight
		}
		if strings.Contains(itemTitle, w) {
			score += itemTitleWeight
		}
		score += strings.Count(plain, w)
		for _, tag := range tags {
			if strings.Contains(tag, w) {
				score += tagWeight
				break
			}
		}
	}
	return float64(score)
}
