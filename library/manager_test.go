package library

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "test.db")
	cfg.Downloads.Dir = filepath.Join(dir, "downloads")
	cfg.Downloads.ProgressInterval = ""
	return cfg
}

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	lm, err := NewLibraryManager(testConfig(t), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { lm.Close() })
	return lm
}

// taleFiles is the unzipped layout of one book archive.
var taleFiles = map[string]string{
	"tale-cover.png":   "png",
	"tale-images.html": taleHTML,
	"images/cat.png":   "png",
}

func writeBookDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func zipBook(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIngestDir(t *testing.T) {
	lm := newManager(t)
	dir := writeBookDir(t, taleFiles)

	id, err := lm.IngestDir(dir)
	require.NoError(t, err)

	book, err := lm.GetBook(id)
	require.NoError(t, err)
	assert.Equal(t, "The Tale of Tests", book.Title)
	assert.Equal(t, "Jane Doe", book.Author)
	assert.Equal(t, filepath.Join(dir, "tale-cover.png"), book.CoverPath)

	chapters, err := lm.GetChapters(id)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	for i, ch := range chapters {
		assert.Equal(t, i+1, ch.OrderIndex)
	}

	items, err := lm.ChapterContent(chapters[1].ID)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, filepath.Join(dir, "images/cat.png"), items[1].(*Image).Path)

	counts, err := lm.BookCounts(id)
	require.NoError(t, err)
	assert.Equal(t, ContentCounts{Headings: 1, Paragraphs: 3, Images: 1, Tables: 1}, counts)
}

func TestIngestDirMissingAssets(t *testing.T) {
	cases := map[string]map[string]string{
		"no cover": {"tale-images.html": taleHTML},
		"no html":  {"tale-cover.png": "png"},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			lm := newManager(t)
			_, err := lm.IngestDir(writeBookDir(t, files))
			assert.ErrorIs(t, err, ErrMissingAsset)

			books, err := lm.GetAllBooks()
			require.NoError(t, err)
			assert.Empty(t, books)
		})
	}
}

func TestIngestDirNotADirectory(t *testing.T) {
	lm := newManager(t)
	_, err := lm.IngestDir(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, ErrMissingAsset)
}

func TestChapterPages(t *testing.T) {
	lm := newManager(t)
	id, err := lm.IngestDir(writeBookDir(t, taleFiles))
	require.NoError(t, err)
	ch, err := lm.GetChapterByOrder(id, 2)
	require.NoError(t, err)

	pages, err := lm.ChapterPages(ch.ID, 3)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Len(t, pages[0], 3)
	assert.Len(t, pages[1], 1)

	page, ok := LocateChunk(pages, 4)
	assert.True(t, ok)
	assert.Equal(t, 1, page)

	_, err = lm.ChapterPages(ch.ID, 0)
	assert.Error(t, err)
}

func TestManagerSearch(t *testing.T) {
	lm := newManager(t)
	id, err := lm.IngestDir(writeBookDir(t, taleFiles))
	require.NoError(t, err)

	res, err := lm.Search(id, "the")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 2, res[0].Chapter.OrderIndex)
	assert.Equal(t, 3, res[1].Chapter.OrderIndex)
	require.Len(t, res[0].Hits, 2)
	assert.Equal(t, "the", res[0].Hits[0].Snippets[0].Match)

	res, err = lm.Search(id, "Cat")
	require.NoError(t, err)
	assert.Empty(t, res, "captions are not searchable and matching is case-sensitive")

	_, err = lm.Search(id+100, "the")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBookThenIngestAgain(t *testing.T) {
	lm := newManager(t)
	dir := writeBookDir(t, taleFiles)
	id, err := lm.IngestDir(dir)
	require.NoError(t, err)
	require.NoError(t, lm.DeleteBook(id))

	id2, err := lm.IngestDir(dir)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	b, err := lm.FindBookByDigest(mustDigest(t))
	require.NoError(t, err)
	assert.Equal(t, id2, b.ID)
}

func TestIngestDirSkipDuplicates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Downloads.SkipDuplicates = true
	lm, err := NewLibraryManager(cfg, nil)
	require.NoError(t, err)
	defer lm.Close()

	id, err := lm.IngestDir(writeBookDir(t, taleFiles))
	require.NoError(t, err)
	again, err := lm.IngestDir(writeBookDir(t, taleFiles))
	require.NoError(t, err)
	assert.Equal(t, id, again)

	books, err := lm.GetAllBooks()
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestIngestDirKeepsDuplicatesByDefault(t *testing.T) {
	lm := newManager(t)
	_, err := lm.IngestDir(writeBookDir(t, taleFiles))
	require.NoError(t, err)
	_, err = lm.IngestDir(writeBookDir(t, taleFiles))
	require.NoError(t, err)

	books, err := lm.GetAllBooks()
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func mustDigest(t *testing.T) string {
	t.Helper()
	pb, err := ParseBook(bytes.NewReader([]byte(taleHTML)), "")
	require.NoError(t, err)
	return pb.Digest
}

func TestIngestURL(t *testing.T) {
	archive := zipBook(t, taleFiles)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	lm := newManager(t)
	var last int
	id, err := lm.IngestURL(context.Background(), srv.URL+"/books/tale.zip", func(pct int) { last = pct })
	require.NoError(t, err)
	assert.Equal(t, 100, last)

	book, err := lm.GetBook(id)
	require.NoError(t, err)
	assert.Equal(t, "The Tale of Tests", book.Title)
	assert.Equal(t, "tale-cover.png", filepath.Base(book.CoverPath))
}

func TestImportAllContinuesPastFailures(t *testing.T) {
	good := zipBook(t, taleFiles)
	noCover := zipBook(t, map[string]string{"x-images.html": taleHTML})
	mux := http.NewServeMux()
	mux.HandleFunc("/good.zip", func(w http.ResponseWriter, r *http.Request) { w.Write(good) })
	mux.HandleFunc("/nocover.zip", func(w http.ResponseWriter, r *http.Request) { w.Write(noCover) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	lm := newManager(t)
	results := lm.ImportAll(context.Background(), []string{
		srv.URL + "/missing.zip",
		srv.URL + "/good.zip",
		srv.URL + "/nocover.zip",
	}, nil)
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, ErrDownload)
	assert.NoError(t, results[1].Err)
	assert.NotZero(t, results[1].BookID)
	assert.ErrorIs(t, results[2].Err, ErrMissingAsset)

	books, err := lm.GetAllBooks()
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestPrettyBook(t *testing.T) {
	s := PrettyBook(&Book{ID: 7, Title: "A very long title that goes on and on past forty chars", Author: "Anon"})
	assert.Contains(t, s, "7")
	assert.Contains(t, s, "...")
	assert.Contains(t, s, "Anon")
}
