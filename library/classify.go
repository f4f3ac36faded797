package library

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

const contentsTitle = "Contents"

// nodeKind is the closed set of element shapes the book HTML is classified into.
type nodeKind int

const (
	nodeUnknown nodeKind = iota
	nodeHeading2
	nodeHeading3
	nodeParagraph
	nodeFigure
	nodeContents // h2 whose text is exactly "Contents"
	nodeChapter  // div.chapter
	nodeTable
)

func kindOf(s *goquery.Selection) nodeKind {
	if s == nil || s.Length() == 0 {
		return nodeUnknown
	}
	n := s.Get(0)
	if n.Type != html.ElementNode {
		return nodeUnknown
	}
	switch n.DataAtom {
	case atom.H2:
		if elementText(s) == contentsTitle {
			return nodeContents
		}
		return nodeHeading2
	case atom.H3:
		return nodeHeading3
	case atom.P:
		return nodeParagraph
	case atom.Table:
		return nodeTable
	case atom.Div:
		switch {
		case s.HasClass("chapter"):
			return nodeChapter
		case s.HasClass("fig"):
			return nodeFigure
		}
	}
	return nodeUnknown
}

// elementText returns the element's text with whitespace runs collapsed, NFC normalised.
func elementText(s *goquery.Selection) string {
	return normalizeText(s.Text())
}

func normalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// BoundaryKind distinguishes the two ways a chapter starts.
type BoundaryKind int

const (
	BoundaryContents BoundaryKind = iota
	BoundaryChapter
)

// Boundary is a recognised chapter start. For BoundaryChapter, Node is the
// div.chapter subtree. For BoundaryContents, Node is the table that follows the
// heading, or nil when none was found.
type Boundary struct {
	Kind       BoundaryKind
	Title      string
	OrderIndex int
	Node       *goquery.Selection
}

// classifyState is the accumulator of the boundary fold.
type classifyState struct {
	next       int
	boundaries []Boundary
}

func (st classifyState) step(s *goquery.Selection) classifyState {
	switch kindOf(s) {
	case nodeContents:
		st.boundaries = append(st.boundaries, Boundary{
			Kind:       BoundaryContents,
			Title:      contentsTitle,
			OrderIndex: st.next,
			Node:       contentsTable(s),
		})
		st.next++
	case nodeChapter:
		st.boundaries = append(st.boundaries, Boundary{
			Kind:       BoundaryChapter,
			Title:      elementText(s.Find("h2").First()),
			OrderIndex: st.next,
			Node:       s,
		})
		st.next++
	case nodeHeading2, nodeHeading3, nodeParagraph, nodeFigure, nodeTable, nodeUnknown:
		// Not a boundary. Content outside a div.chapter is only reachable
		// through the Contents sibling scan.
	}
	return st
}

// Classify walks the direct children of body in document order and returns the
// chapter boundaries, numbered 1..N.
func Classify(body *goquery.Selection) []Boundary {
	st := classifyState{next: 1}
	body.Children().Each(func(_ int, s *goquery.Selection) {
		st = st.step(s)
	})
	return st.boundaries
}

// contentsTable scans the following siblings of a Contents heading for the
// first table. The scan stops at the next chapter boundary.
func contentsTable(heading *goquery.Selection) *goquery.Selection {
	for sib := heading.Next(); sib.Length() > 0; sib = sib.Next() {
		switch kindOf(sib) {
		case nodeTable:
			return sib
		case nodeContents, nodeChapter:
			return nil
		}
	}
	return nil
}
