package library

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Preference keys of the persisted client state.
const (
	prefLastRoute       = "last_route"
	prefCurrentBook     = "current_book"
	prefChapterOrder    = "current_chapter_order_index"
	prefElementOrder    = "current_chapter_element_order_index"
	prefScrollOrder     = "current_scroll_chapter_element_order_index"
	prefAvailableURLs   = "urls_available_for_download"
	prefDownloadsSeeded = "are_initial_books_downloaded"
)

// fieldSep joins multi-field values. Titles and URLs are not expected to contain it.
const fieldSep = "###"

// Route names the screen the reader was last on.
type Route string

const (
	RouteHome    Route = "home"
	RouteLibrary Route = "library"
	RouteReading Route = "reading"
	RouteSearch  Route = "search"
	RouteTOC     Route = "toc"
)

func (r Route) valid() bool {
	switch r {
	case RouteHome, RouteLibrary, RouteReading, RouteSearch, RouteTOC:
		return true
	}
	return false
}

// ReadingState is what Restore hands back. Zero order indices mean unset.
type ReadingState struct {
	Route        Route
	Book         *Book
	ChapterOrder int
	ElementOrder int
}

// StateStore persists client state as key/value pairs in the preferences table.
type StateStore struct {
	db *Database
}

func NewStateStore(db *Database) *StateStore {
	return &StateStore{db: db}
}

func (s *StateStore) SetRoute(r Route) error {
	return s.db.SetPreference(prefLastRoute, string(r))
}

// LastRoute returns the saved route, or home when none or an unknown one is stored.
func (s *StateStore) LastRoute() (Route, error) {
	v, ok, err := s.db.GetPreference(prefLastRoute)
	if err != nil {
		return RouteHome, err
	}
	if r := Route(v); ok && r.valid() {
		return r, nil
	}
	return RouteHome, nil
}

// SetCurrentBook records the open book as id###title###author###cover.
func (s *StateStore) SetCurrentBook(b *Book) error {
	v := strings.Join([]string{strconv.FormatInt(b.ID, 10), b.Title, b.Author, b.CoverPath}, fieldSep)
	return s.db.SetPreference(prefCurrentBook, v)
}

// CurrentBook decodes the open book. It returns nil when none is recorded and
// ErrMalformedState when the value does not split into four fields or the id
// is not numeric.
func (s *StateStore) CurrentBook() (*Book, error) {
	v, ok, err := s.db.GetPreference(prefCurrentBook)
	if err != nil || !ok || v == "" {
		return nil, err
	}
	return decodeBook(v)
}

func decodeBook(v string) (*Book, error) {
	fields := strings.Split(v, fieldSep)
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: current_book has %d fields, want 4", ErrMalformedState, len(fields))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: current_book id %q: %v", ErrMalformedState, fields[0], err)
	}
	return &Book{ID: id, Title: fields[1], Author: fields[2], CoverPath: fields[3]}, nil
}

func (s *StateStore) SetChapterOrder(orderIndex int) error {
	return s.db.SetPreference(prefChapterOrder, strconv.Itoa(orderIndex))
}

// SetElementOrder records the content item being read. Non-positive indices are ignored.
func (s *StateStore) SetElementOrder(orderIndex int) error {
	if orderIndex <= 0 {
		return nil
	}
	return s.db.SetPreference(prefElementOrder, strconv.Itoa(orderIndex))
}

// SetScrollOrder records the first item of the visible page.
func (s *StateStore) SetScrollOrder(orderIndex int) error {
	return s.db.SetPreference(prefScrollOrder, strconv.Itoa(orderIndex))
}

// SetPage records the first item of page as the scroll position. An empty
// page records 1 so a position left over from another chapter is not saved.
func (s *StateStore) SetPage(page []ContentItem) error {
	if len(page) == 0 {
		return s.SetScrollOrder(1)
	}
	return s.SetScrollOrder(page[0].Order())
}

// Save promotes the scroll position to the current element, defaulting to 1.
func (s *StateStore) Save() error {
	scroll, err := s.intPref(prefScrollOrder, 1)
	if err != nil {
		return err
	}
	return s.db.SetPreference(prefElementOrder, strconv.Itoa(scroll))
}

// Restore reads back the route, open book, chapter and element. It stops at
// the first missing piece; a corrupt book record is returned as an error.
func (s *StateStore) Restore() (ReadingState, error) {
	var st ReadingState
	route, err := s.LastRoute()
	if err != nil {
		return st, err
	}
	st.Route = route

	book, err := s.CurrentBook()
	if err != nil || book == nil {
		return st, err
	}
	st.Book = book

	if st.ChapterOrder, err = s.intPref(prefChapterOrder, 0); err != nil || st.ChapterOrder == 0 {
		return st, err
	}
	st.ElementOrder, err = s.intPref(prefElementOrder, 0)
	return st, err
}

func (s *StateStore) intPref(key string, def int) (int, error) {
	v, ok, err := s.db.GetPreference(key)
	if err != nil || !ok {
		return def, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q", ErrMalformedState, key, v)
	}
	return n, nil
}

// SeedDownloads stores urls as available for download the first time it is
// called; later calls leave the stored list alone.
func (s *StateStore) SeedDownloads(urls []string) error {
	_, seeded, err := s.db.GetPreference(prefDownloadsSeeded)
	if err != nil || seeded {
		return err
	}
	if err := s.setAvailable(urls); err != nil {
		return err
	}
	return s.db.SetPreference(prefDownloadsSeeded, "true")
}

// AvailableDownloads lists URLs not yet taken for download.
func (s *StateStore) AvailableDownloads() ([]string, error) {
	v, _, err := s.db.GetPreference(prefAvailableURLs)
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, u := range strings.Split(v, fieldSep) {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// NextDownloads removes up to n URLs from the available list and returns them.
// n <= 0 takes all of them.
func (s *StateStore) NextDownloads(n int) ([]string, error) {
	urls, err := s.AvailableDownloads()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > len(urls) {
		n = len(urls)
	}
	if err := s.setAvailable(urls[n:]); err != nil {
		return nil, err
	}
	return urls[:n], nil
}

// RequeueDownloads puts urls back at the end of the available list, skipping
// any that are already queued.
func (s *StateStore) RequeueDownloads(urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	queued, err := s.AvailableDownloads()
	if err != nil {
		return err
	}
	for _, u := range urls {
		if u != "" && !slices.Contains(queued, u) {
			queued = append(queued, u)
		}
	}
	return s.setAvailable(queued)
}

func (s *StateStore) setAvailable(urls []string) error {
	return s.db.SetPreference(prefAvailableURLs, strings.Join(urls, fieldSep))
}
