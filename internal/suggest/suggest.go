// Package suggest implements the ranked suggestion menu behind slash
// commands: query filtering, keyboard navigation state, and the
// trigger-to-cursor command range.
package suggest

import (
	"sort"
	"strings"
)

// Item is one selectable suggestion.
type Item struct {
	Title    string   `json:"title"`
	Subtext  string   `json:"subtext,omitempty"`
	Badge    string   `json:"badge,omitempty"`
	Group    string   `json:"group,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	// BlockType is the rich text block the command converts to.
	BlockType string `json:"blockType,omitempty"`
}

// Match tiers. A query matches at most one tier per item; higher wins.
const (
	scoreExact     = 1000
	scorePrefix    = 100
	scoreSubstring = 50
	scoreSubtext   = 25
	scoreKeyword   = 10
)

// Filter ranks items against a query. An empty query returns the items
// untouched. Ties keep the original order.
func Filter(items []Item, query string) []Item {
	if strings.TrimSpace(query) == "" {
		return items
	}

	lowerQuery := strings.ToLower(query)

	type scored struct {
		item  Item
		score int
	}
	matches := make([]scored, 0, len(items))
	for _, item := range items {
		title := strings.ToLower(item.Title)
		subtext := strings.ToLower(item.Subtext)
		keywords := strings.ToLower(strings.Join(item.Keywords, " "))

		var score int
		switch {
		case title == lowerQuery:
			score = scoreExact
		case strings.HasPrefix(title, lowerQuery):
			score = scorePrefix
		case strings.Contains(title, lowerQuery):
			score = scoreSubstring
		case subtext != "" && strings.Contains(subtext, lowerQuery):
			score = scoreSubtext
		case keywords != "" && strings.Contains(keywords, lowerQuery):
			score = scoreKeyword
		}
		if score > 0 {
			matches = append(matches, scored{item: item, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]Item, len(matches))
	for i, m := range matches {
		result[i] = m.item
	}
	return result
}

// SlashItems returns the built-in slash command set.
func SlashItems() []Item {
	return []Item{
		{Title: "Text", Badge: "T", Group: "Write", Keywords: []string{"paragraph", "plain", "text"}, BlockType: "paragraph"},
		{Title: "Heading 1", Group: "Structure", Keywords: []string{"h1", "title"}, BlockType: "heading1"},
		{Title: "Heading 2", Group: "Structure", Keywords: []string{"h2", "subtitle"}, BlockType: "heading2"},
		{Title: "Heading 3", Group: "Structure", Keywords: []string{"h3"}, BlockType: "heading3"},
		{Title: "Bullet List", Group: "Lists", Keywords: []string{"unordered", "ul"}, BlockType: "bulletList"},
		{Title: "Numbered List", Group: "Lists", Keywords: []string{"ordered", "ol", "1"}, BlockType: "orderedList"},
		{Title: "Task List", Group: "Lists", Keywords: []string{"todo", "checkbox", "check"}, BlockType: "taskList"},
		{Title: "Blockquote", Group: "Special", Keywords: []string{"quote", "citation"}, BlockType: "blockquote"},
		{Title: "Code Block", Group: "Special", Keywords: []string{"code", "programming", "snippet"}, BlockType: "codeBlock"},
		{Title: "Separator", Group: "Special", Keywords: []string{"horizontal", "rule", "divider", "hr"}, BlockType: "horizontalRule"},
	}
}

// CommandRange finds the start of the trigger-to-cursor range inside a
// text run ending at cursor. When the trigger is absent the range
// collapses to the cursor.
func CommandRange(text string, cursor int, trigger string) (start, end int) {
	if cursor > len(text) {
		cursor = len(text)
	}
	if cursor < 0 {
		cursor = 0
	}
	idx := strings.LastIndex(text[:cursor], trigger)
	if idx == -1 {
		return cursor, cursor
	}
	return idx, cursor
}
