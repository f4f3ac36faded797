package library

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/blake2b"
)

// extractState carries the shared order counter across all four variants.
type extractState struct {
	next  int
	items []ContentItem
}

func (st extractState) step(s *goquery.Selection, basePath string) extractState {
	switch kindOf(s) {
	case nodeHeading3:
		st.items = append(st.items, &Heading{OrderIndex: st.next, Text: elementText(s)})
		st.next++
	case nodeParagraph:
		st.items = append(st.items, &Paragraph{OrderIndex: st.next, Text: elementText(s)})
		st.next++
	case nodeFigure:
		img := s.Find("img").First()
		if img.Length() == 0 {
			return st
		}
		alt := img.AttrOr("alt", "")
		if caption := s.Find(".caption").First(); caption.Length() > 0 {
			alt = elementText(caption)
		}
		st.items = append(st.items, &Image{
			OrderIndex: st.next,
			Path:       filepath.Join(basePath, img.AttrOr("src", "")),
			AltText:    alt,
		})
		st.next++
	case nodeHeading2, nodeContents, nodeChapter, nodeTable, nodeUnknown:
	}
	return st
}

// ExtractChapter turns the direct children of a div.chapter into content items
// numbered by one counter starting at 1. basePath is the directory image
// sources are relative to.
func ExtractChapter(chapter *goquery.Selection, basePath string) []ContentItem {
	st := extractState{next: 1}
	chapter.Children().Each(func(_ int, s *goquery.Selection) {
		st = st.step(s, basePath)
	})
	return st.items
}

// ParseBook parses a book's content HTML into its title, author and chapters.
// The digest is taken over the raw bytes read from r.
func ParseBook(r io.Reader, basePath string) (*ParsedBook, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read book html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse book html: %w", err)
	}

	sum := blake2b.Sum256(raw)
	book := &ParsedBook{
		Title:  elementText(doc.Find("h1").First()),
		Author: elementText(doc.Find("body > h2").First()),
		Digest: fmt.Sprintf("%x", sum[:16]),
	}

	for _, b := range Classify(doc.Find("body")) {
		ch := ParsedChapter{Title: b.Title, OrderIndex: b.OrderIndex}
		switch b.Kind {
		case BoundaryContents:
			if b.Node != nil {
				markup, err := goquery.OuterHtml(b.Node)
				if err != nil {
					return nil, fmt.Errorf("render contents table: %w", err)
				}
				ch.Items = []ContentItem{&Table{OrderIndex: 1, HTML: markup}}
			}
		case BoundaryChapter:
			ch.Items = ExtractChapter(b.Node, basePath)
		}
		book.Chapters = append(book.Chapters, ch)
	}
	return book, nil
}
