package feed

import (
	"strings"

	"golang.org/x/text/cases"
)

type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// ComposeText joins title, description and categories with single spaces.
func (m *Matcher) ComposeText(item Item) string {
	parts := make([]string, 0, len(item.Categories)+2)
	parts = append(parts, item.Title, item.Description)
	parts = append(parts, item.Categories...)
	return strings.Join(parts, " ")
}

// Run returns the keywords contained in text, in the order they were given.
// Matching is case-insensitive substring containment.
func (m *Matcher) Run(text string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}

	fold := cases.Fold()
	haystack := fold.String(text)

	var matched []string
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(haystack, fold.String(keyword)) {
			matched = append(matched, keyword)
		}
	}

	return matched
}
