package library

import "strings"

// DefaultSnippetRadius is how many characters of context surround a hit.
const DefaultSnippetRadius = 50

// Snippet is one occurrence of a query inside a text field. Offset is the byte
// offset of Match within the text.
type Snippet struct {
	Before string
	Match  string
	After  string
	Offset int
}

// Snippets finds every non-overlapping occurrence of query in text, scanning
// left to right and resuming right after the previous occurrence. Each hit
// keeps up to radius characters either side, clamped to the text. A negative
// radius keeps no context.
func Snippets(text, query string, radius int) []Snippet {
	if query == "" {
		return nil
	}
	var out []Snippet
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], query)
		if i < 0 {
			break
		}
		at := start + i
		end := at + len(query)
		out = append(out, Snippet{
			Before: lastRunes(text[:at], radius),
			Match:  query,
			After:  firstRunes(text[end:], radius),
			Offset: at,
		})
		start = end
	}
	return out
}

func lastRunes(s string, n int) string {
	n = max(n, 0)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func firstRunes(s string, n int) string {
	n = max(n, 0)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SearchHit pairs a matching item with the snippets found in its text.
type SearchHit struct {
	Item     ContentItem
	Snippets []Snippet
}

// ChapterHits is the presentation form of one chapter's search results.
type ChapterHits struct {
	Chapter Chapter
	Hits    []SearchHit
}

// BuildHits expands occurrence search results into snippets.
func BuildHits(matches []ChapterMatches, query string, radius int) []ChapterHits {
	out := make([]ChapterHits, 0, len(matches))
	for _, m := range matches {
		ch := ChapterHits{Chapter: m.Chapter}
		for _, item := range m.Items {
			text, ok := SearchableText(item)
			if !ok {
				continue
			}
			ch.Hits = append(ch.Hits, SearchHit{Item: item, Snippets: Snippets(text, query, radius)})
		}
		out = append(out, ch)
	}
	return out
}
