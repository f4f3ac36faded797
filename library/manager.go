package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

// Archive layout: one cover image and one content HTML per book.
const (
	coverSuffix   = "-cover.png"
	contentSuffix = "-images.html"
)

// LibraryManager is a thin façade over the Database and Fetcher, keeping CLI code simple.
type LibraryManager struct {
	db      *Database
	fetcher *Fetcher
	state   *StateStore
	cfg     *Config
	logger  *log.Logger
}

// NewLibraryManager opens (or creates) the SQLite database named in cfg.
func NewLibraryManager(cfg *Config, logger *log.Logger) (*LibraryManager, error) {
	logger = orDiscard(logger)
	db, err := NewDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	fetcher, err := NewFetcher(cfg.Downloads, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &LibraryManager{
		db:      db,
		fetcher: fetcher,
		state:   NewStateStore(db),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// State exposes the persisted client state.
func (lm *LibraryManager) State() *StateStore { return lm.state }

// ------------------ Ingestion ------------------

// IngestURL downloads, extracts, parses and stores one book archive.
func (lm *LibraryManager) IngestURL(ctx context.Context, url string, progress ProgressFunc) (int64, error) {
	dir, err := lm.fetcher.Fetch(ctx, url, progress)
	if err != nil {
		return 0, err
	}
	return lm.IngestDir(dir)
}

// IngestDir parses an unzipped book directory and stores it. Nothing is
// persisted unless the cover, the content HTML and every insert succeed.
func (lm *LibraryManager) IngestDir(dir string) (int64, error) {
	run := uuid.NewString()
	abs, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}

	cover, err := lm.findAsset(abs, coverSuffix)
	if err != nil {
		return 0, err
	}
	content, err := lm.findAsset(abs, contentSuffix)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(content)
	if err != nil {
		return 0, fmt.Errorf("open content html: %w", err)
	}
	defer f.Close()

	pb, err := ParseBook(f, abs)
	if err != nil {
		return 0, err
	}
	pb.CoverPath = cover

	if lm.cfg.Downloads.SkipDuplicates {
		existing, err := lm.db.FindBookByDigest(pb.Digest)
		switch {
		case err == nil:
			lm.logger.Info().Str("run", run).Int64("book_id", existing.ID).Str("title", existing.Title).Msg("book already in library")
			return existing.ID, nil
		case !errors.Is(err, ErrNotFound):
			return 0, err
		}
	}

	id, err := lm.db.InsertParsedBook(pb)
	if err != nil {
		return 0, err
	}
	lm.logger.Info().
		Str("run", run).
		Int64("book_id", id).
		Str("title", pb.Title).
		Int("chapters", len(pb.Chapters)).
		Msg("book ingested")
	return id, nil
}

// findAsset returns the file in dir whose name ends with suffix.
func (lm *LibraryManager) findAsset(dir, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrMissingAsset, dir, err)
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no *%s in %s", ErrMissingAsset, suffix, dir)
	case 1:
	default:
		lm.logger.Warn().Str("dir", dir).Str("suffix", suffix).Int("count", len(found)).Msg("several candidates, using the first")
	}
	return found[0], nil
}

// ImportResult is the outcome of one URL in ImportAll.
type ImportResult struct {
	URL    string
	BookID int64
	Err    error
}

// ImportAll downloads urls concurrently and then ingests them one at a time,
// in the order given, so only one writer touches the store. Failures are
// logged and reported per URL; they never stop the remaining URLs.
func (lm *LibraryManager) ImportAll(ctx context.Context, urls []string, progress func(url string, percent int)) []ImportResult {
	fetched := lm.fetcher.FetchAll(ctx, urls, progress)
	results := make([]ImportResult, len(fetched))
	for i, fr := range fetched {
		results[i] = ImportResult{URL: fr.URL, Err: fr.Err}
		if fr.Err != nil {
			lm.logger.Error().Err(fr.Err).Str("url", fr.URL).Msg("download failed")
			continue
		}
		id, err := lm.IngestDir(fr.Dir)
		if err != nil {
			lm.logger.Error().Err(err).Str("url", fr.URL).Str("dir", fr.Dir).Msg("ingestion failed")
			results[i].Err = err
			continue
		}
		results[i].BookID = id
	}
	return results
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) GetBook(id int64) (*Book, error) { return lm.db.GetBook(id) }
func (lm *LibraryManager) GetAllBooks() ([]*Book, error)   { return lm.db.GetAllBooks() }
func (lm *LibraryManager) DeleteBook(id int64) error       { return lm.db.DeleteBook(id) }
func (lm *LibraryManager) DeleteAllBooks() error           { return lm.db.DeleteAllBooks() }

func (lm *LibraryManager) FindBookByDigest(digest string) (*Book, error) {
	return lm.db.FindBookByDigest(digest)
}

func (lm *LibraryManager) BookCounts(bookID int64) (ContentCounts, error) {
	return lm.db.BookCounts(bookID)
}

// ------------------ Chapter helpers ------------------

func (lm *LibraryManager) GetChapters(bookID int64) ([]Chapter, error) {
	return lm.db.GetChapters(bookID)
}

func (lm *LibraryManager) GetChapterByOrder(bookID int64, orderIndex int) (*Chapter, error) {
	return lm.db.GetChapterByOrder(bookID, orderIndex)
}

func (lm *LibraryManager) ChapterCounts(chapterID int64) (ContentCounts, error) {
	return lm.db.ChapterCounts(chapterID)
}

// ChapterContent returns a chapter's items in reading order.
func (lm *LibraryManager) ChapterContent(chapterID int64) ([]ContentItem, error) {
	return lm.db.GetOrdered(chapterID)
}

// ChapterPages returns a chapter's items split into pages of size items.
func (lm *LibraryManager) ChapterPages(chapterID int64, size int) ([][]ContentItem, error) {
	items, err := lm.db.GetOrdered(chapterID)
	if err != nil {
		return nil, err
	}
	return Chunk(items, size)
}

// ------------------ Search ------------------

// Search runs occurrence search over a book and expands each hit into snippets.
func (lm *LibraryManager) Search(bookID int64, query string) ([]ChapterHits, error) {
	if _, err := lm.db.GetBook(bookID); err != nil {
		return nil, err
	}
	matches, err := lm.db.SearchOccurrence(bookID, query)
	if err != nil {
		return nil, err
	}
	return BuildHits(matches, query, lm.cfg.Reading.SnippetRadius), nil
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-5d %-40s %-25s", b.ID, truncate(b.Title, 40), truncate(b.Author, 25))
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
