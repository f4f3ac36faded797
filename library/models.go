package library

// Book is the metadata row created once per successful ingestion.
// Digest identifies the content HTML it was parsed from.
type Book struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	CoverPath string `json:"cover_path"`
	Digest    string `json:"digest,omitempty"`
}

// Chapter belongs to a book. OrderIndex is 1-based and contiguous within the book.
type Chapter struct {
	ID         int64  `json:"id"`
	BookID     int64  `json:"book_id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

// ContentKind tags the four content item variants.
type ContentKind int

const (
	KindHeading ContentKind = iota
	KindParagraph
	KindImage
	KindTable
)

func (k ContentKind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindImage:
		return "image"
	case KindTable:
		return "table"
	}
	return "unknown"
}

// ContentItem is one of *Heading, *Paragraph, *Image or *Table. The set is
// closed: the unexported method keeps other packages from adding variants.
type ContentItem interface {
	Kind() ContentKind
	Order() int
	contentItem()
}

// Heading is an h3 inside a chapter.
type Heading struct {
	ID         int64  `json:"id"`
	ChapterID  int64  `json:"chapter_id"`
	OrderIndex int    `json:"order_index"`
	Text       string `json:"text"`
}

// Paragraph is a p inside a chapter.
type Paragraph struct {
	ID         int64  `json:"id"`
	ChapterID  int64  `json:"chapter_id"`
	OrderIndex int    `json:"order_index"`
	Text       string `json:"text"`
}

// Image is a figure. Path is the chapter's resource directory joined with the img src.
type Image struct {
	ID         int64  `json:"id"`
	ChapterID  int64  `json:"chapter_id"`
	OrderIndex int    `json:"order_index"`
	Path       string `json:"path"`
	AltText    string `json:"alt_text,omitempty"`
}

// Table keeps the raw table markup; rows and cells are derived by RenderTable.
type Table struct {
	ID         int64  `json:"id"`
	ChapterID  int64  `json:"chapter_id"`
	OrderIndex int    `json:"order_index"`
	HTML       string `json:"html"`
}

func (*Heading) Kind() ContentKind   { return KindHeading }
func (*Paragraph) Kind() ContentKind { return KindParagraph }
func (*Image) Kind() ContentKind     { return KindImage }
func (*Table) Kind() ContentKind     { return KindTable }

func (h *Heading) Order() int   { return h.OrderIndex }
func (p *Paragraph) Order() int { return p.OrderIndex }
func (i *Image) Order() int     { return i.OrderIndex }
func (t *Table) Order() int     { return t.OrderIndex }

func (*Heading) contentItem()   {}
func (*Paragraph) contentItem() {}
func (*Image) contentItem()     {}
func (*Table) contentItem()     {}

// SearchableText returns the text occurrence search looks at. Only headings
// and paragraphs are searchable; image alt text and table markup are not.
func SearchableText(item ContentItem) (string, bool) {
	switch it := item.(type) {
	case *Heading:
		return it.Text, true
	case *Paragraph:
		return it.Text, true
	case *Image, *Table:
		return "", false
	}
	return "", false
}

// ChapterMatches groups the searchable items of one chapter that contain a query.
type ChapterMatches struct {
	Chapter Chapter       `json:"chapter"`
	Items   []ContentItem `json:"items"`
}

// ContentCounts tallies content items per variant.
type ContentCounts struct {
	Headings   int `json:"headings"`
	Paragraphs int `json:"paragraphs"`
	Images     int `json:"images"`
	Tables     int `json:"tables"`
}

// ParsedChapter is a chapter ready for insertion.
type ParsedChapter struct {
	Title      string
	OrderIndex int
	Items      []ContentItem
}

// ParsedBook is the result of parsing one book's content HTML.
type ParsedBook struct {
	Title     string
	Author    string
	CoverPath string
	Digest    string
	Chapters  []ParsedChapter
}
