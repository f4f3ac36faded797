package library

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetsNonOverlapping(t *testing.T) {
	got := Snippets("the cat sat on the mat", "at", 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int{5, 9, 20}, []int{got[0].Offset, got[1].Offset, got[2].Offset})

	assert.Equal(t, "e c", got[0].Before)
	assert.Equal(t, "at", got[0].Match)
	assert.Equal(t, " sa", got[0].After)

	assert.Equal(t, "e m", got[2].Before)
	assert.Equal(t, "", got[2].After, "window is clamped at the end of the text")
}

func TestSnippetsResumeAfterMatch(t *testing.T) {
	got := Snippets("aaaa", "aa", 0)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Offset)
	assert.Equal(t, 2, got[1].Offset)

	got = Snippets("aaa", "aa", 0)
	require.Len(t, got, 1)
}

func TestSnippetsClampedAtStart(t *testing.T) {
	got := Snippets("abcdef", "ab", 50)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Before)
	assert.Equal(t, "cdef", got[0].After)
}

func TestSnippetsCaseSensitive(t *testing.T) {
	assert.Empty(t, Snippets("The Cat", "cat", 10))
	assert.Len(t, Snippets("The Cat", "Cat", 10), 1)
}

func TestSnippetsEmptyInputs(t *testing.T) {
	assert.Nil(t, Snippets("anything", "", 10))
	assert.Nil(t, Snippets("", "x", 10))
}

func TestSnippetsCountRunes(t *testing.T) {
	got := Snippets("héllo wörld ünd", "wör", 2)
	require.Len(t, got, 1)
	assert.Equal(t, "o ", got[0].Before)
	assert.Equal(t, "ld", got[0].After)
	assert.Equal(t, strings.Index("héllo wörld ünd", "wör"), got[0].Offset)
}

func TestSnippetsNegativeRadius(t *testing.T) {
	var got []Snippet
	require.NotPanics(t, func() { got = Snippets("hello world", "world", -1) })
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Before)
	assert.Equal(t, "world", got[0].Match)
	assert.Equal(t, "", got[0].After)
	assert.Equal(t, 6, got[0].Offset)
}

func TestSnippetsDefaultRadius(t *testing.T) {
	text := strings.Repeat("x", 200) + "needle" + strings.Repeat("y", 200)
	got := Snippets(text, "needle", DefaultSnippetRadius)
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("x", DefaultSnippetRadius), got[0].Before)
	assert.Equal(t, strings.Repeat("y", DefaultSnippetRadius), got[0].After)
}

func TestBuildHits(t *testing.T) {
	matches := []ChapterMatches{
		{
			Chapter: Chapter{ID: 1, Title: "One", OrderIndex: 2},
			Items: []ContentItem{
				&Heading{OrderIndex: 1, Text: "cat"},
				&Paragraph{OrderIndex: 3, Text: "cat and cat"},
			},
		},
	}
	hits := BuildHits(matches, "cat", 5)
	require.Len(t, hits, 1)
	assert.Equal(t, "One", hits[0].Chapter.Title)
	require.Len(t, hits[0].Hits, 2)
	assert.Len(t, hits[0].Hits[0].Snippets, 1)
	assert.Len(t, hits[0].Hits[1].Snippets, 2)
	assert.Equal(t, 3, hits[0].Hits[1].Item.Order())
}

func TestBuildHitsEmpty(t *testing.T) {
	hits := BuildHits(nil, "x", 5)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearchableText(t *testing.T) {
	text, ok := SearchableText(&Heading{Text: "h"})
	assert.True(t, ok)
	assert.Equal(t, "h", text)

	_, ok = SearchableText(&Image{AltText: "alt"})
	assert.False(t, ok)
	_, ok = SearchableText(&Table{HTML: "<table>"})
	assert.False(t, ok)
}
