package library

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	_ "github.com/mattn/go-sqlite3"
	"github.com/phuslu/log"
)

// Database provides high-level helpers around a SQLite connection.
type Database struct {
	db     *sql.DB
	logger *log.Logger

	insertBookStmt      *sql.Stmt
	insertChapterStmt   *sql.Stmt
	insertHeadingStmt   *sql.Stmt
	insertParagraphStmt *sql.Stmt
	insertImageStmt     *sql.Stmt
	insertTableStmt     *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database described by cfg, applies
// schema migrations, and prepares common statements.
func NewDatabase(cfg DatabaseConfig, logger *log.Logger) (*Database, error) {
	logger = orDiscard(logger)

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	busy := cfg.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	// Foreign keys must be on for every pooled connection or cascades are skipped.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=1", cfg.Path, busy)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db, cfg.WALMode); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db, logger: logger}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	logger.Debug().Str("path", cfg.Path).Bool("wal", cfg.WALMode).Msg("sqlite database ready")
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{
		d.insertBookStmt, d.insertChapterStmt, d.insertHeadingStmt,
		d.insertParagraphStmt, d.insertImageStmt, d.insertTableStmt,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB, wal bool) error {
	if wal {
		// WAL lets readers run alongside the single ingestion writer.
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            cover_path TEXT NOT NULL,
            digest TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE INDEX IF NOT EXISTS idx_books_digest ON books(digest);`,
		`CREATE TABLE IF NOT EXISTS chapters (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            order_index INTEGER NOT NULL,
            UNIQUE(book_id, order_index)
        );`,
		`CREATE TABLE IF NOT EXISTS headings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
            order_index INTEGER NOT NULL,
            text TEXT NOT NULL,
            UNIQUE(chapter_id, order_index)
        );`,
		`CREATE TABLE IF NOT EXISTS paragraphs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
            order_index INTEGER NOT NULL,
            text TEXT NOT NULL,
            UNIQUE(chapter_id, order_index)
        );`,
		`CREATE TABLE IF NOT EXISTS images (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
            order_index INTEGER NOT NULL,
            path TEXT NOT NULL,
            alt_text TEXT NOT NULL DEFAULT '',
            UNIQUE(chapter_id, order_index)
        );`,
		`CREATE TABLE IF NOT EXISTS data_tables (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
            order_index INTEGER NOT NULL,
            html TEXT NOT NULL,
            UNIQUE(chapter_id, order_index)
        );`,
		`CREATE TABLE IF NOT EXISTS preferences (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertBookStmt, err = d.db.Prepare(`INSERT INTO books(title,author,cover_path,digest) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.insertChapterStmt, err = d.db.Prepare(`INSERT INTO chapters(book_id,title,order_index) VALUES(?,?,?)`); err != nil {
		return err
	}
	if d.insertHeadingStmt, err = d.db.Prepare(`INSERT INTO headings(chapter_id,order_index,text) VALUES(?,?,?)`); err != nil {
		return err
	}
	if d.insertParagraphStmt, err = d.db.Prepare(`INSERT INTO paragraphs(chapter_id,order_index,text) VALUES(?,?,?)`); err != nil {
		return err
	}
	if d.insertImageStmt, err = d.db.Prepare(`INSERT INTO images(chapter_id,order_index,path,alt_text) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.insertTableStmt, err = d.db.Prepare(`INSERT INTO data_tables(chapter_id,order_index,html) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Ingestion writes
// ---------------------------------------------------------------------------

// InsertParsedBook stores a book, its chapters and their content in one
// transaction, in ingestion order. Readers never see a half-inserted book.
// Item IDs are filled in only once the transaction has committed.
func (d *Database) InsertParsedBook(pb *ParsedBook) (int64, error) {
	for _, ch := range pb.Chapters {
		if err := checkOrderUnique(nil, ch.Items); err != nil {
			return 0, fmt.Errorf("chapter %d %q: %w", ch.OrderIndex, ch.Title, err)
		}
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Stmt(d.insertBookStmt).Exec(pb.Title, pb.Author, pb.CoverPath, pb.Digest)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	bookID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	var stored []storedItem
	for _, ch := range pb.Chapters {
		res, err := tx.Stmt(d.insertChapterStmt).Exec(bookID, ch.Title, ch.OrderIndex)
		if err != nil {
			return 0, fmt.Errorf("insert chapter %d: %w", ch.OrderIndex, err)
		}
		chapterID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		ids, err := d.putAllTx(tx, chapterID, ch.Items)
		if err != nil {
			return 0, err
		}
		stored = append(stored, ids...)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	for _, s := range stored {
		s.apply()
	}
	d.logger.Debug().Int64("book_id", bookID).Int("chapters", len(pb.Chapters)).Msg("book stored")
	return bookID, nil
}

// PutAll stores content items for an existing chapter. Order indices must not
// collide with each other or with items already stored in the chapter. Each
// item's ID and ChapterID are filled in only when PutAll returns nil.
func (d *Database) PutAll(chapterID int64, items []ContentItem) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM chapters WHERE id=?)`, chapterID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("chapter %d: %w", chapterID, ErrNotFound)
	}

	existing, err := storedOrders(tx, chapterID)
	if err != nil {
		return err
	}
	if err := checkOrderUnique(existing, items); err != nil {
		return fmt.Errorf("chapter %d: %w", chapterID, err)
	}

	stored, err := d.putAllTx(tx, chapterID, items)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, s := range stored {
		s.apply()
	}
	return nil
}

// storedOrders maps every order index already used in a chapter to its variant.
func storedOrders(tx *sql.Tx, chapterID int64) (map[int]ContentKind, error) {
	rows, err := tx.Query(`
        SELECT order_index, ?2 FROM headings WHERE chapter_id=?1
        UNION ALL SELECT order_index, ?3 FROM paragraphs WHERE chapter_id=?1
        UNION ALL SELECT order_index, ?4 FROM images WHERE chapter_id=?1
        UNION ALL SELECT order_index, ?5 FROM data_tables WHERE chapter_id=?1`,
		chapterID, int(KindHeading), int(KindParagraph), int(KindImage), int(KindTable))
	if err != nil {
		return nil, fmt.Errorf("read stored order indices: %w", err)
	}
	defer rows.Close()

	seen := make(map[int]ContentKind)
	for rows.Next() {
		var (
			order int
			kind  int
		)
		if err := rows.Scan(&order, &kind); err != nil {
			return nil, err
		}
		seen[order] = ContentKind(kind)
	}
	return seen, rows.Err()
}

// storedItem is an insert whose row id is handed back to the caller after commit.
type storedItem struct {
	item      ContentItem
	id        int64
	chapterID int64
}

func (s storedItem) apply() {
	switch it := s.item.(type) {
	case *Heading:
		it.ID, it.ChapterID = s.id, s.chapterID
	case *Paragraph:
		it.ID, it.ChapterID = s.id, s.chapterID
	case *Image:
		it.ID, it.ChapterID = s.id, s.chapterID
	case *Table:
		it.ID, it.ChapterID = s.id, s.chapterID
	}
}

func (d *Database) putAllTx(tx *sql.Tx, chapterID int64, items []ContentItem) ([]storedItem, error) {
	stored := make([]storedItem, 0, len(items))
	for _, item := range items {
		var (
			res sql.Result
			err error
		)
		switch it := item.(type) {
		case *Heading:
			res, err = tx.Stmt(d.insertHeadingStmt).Exec(chapterID, it.OrderIndex, it.Text)
		case *Paragraph:
			res, err = tx.Stmt(d.insertParagraphStmt).Exec(chapterID, it.OrderIndex, it.Text)
		case *Image:
			res, err = tx.Stmt(d.insertImageStmt).Exec(chapterID, it.OrderIndex, it.Path, it.AltText)
		case *Table:
			res, err = tx.Stmt(d.insertTableStmt).Exec(chapterID, it.OrderIndex, it.HTML)
		default:
			return nil, fmt.Errorf("unsupported content item %T", item)
		}
		if err != nil {
			return nil, fmt.Errorf("insert %s %d: %w", item.Kind(), item.Order(), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		stored = append(stored, storedItem{item: item, id: id, chapterID: chapterID})
	}
	return stored, nil
}

// checkOrderUnique enforces that order indices are unique across all variants
// of one chapter, including those in seen. The per-table UNIQUE constraints
// only cover one variant each.
func checkOrderUnique(seen map[int]ContentKind, items []ContentItem) error {
	if seen == nil {
		seen = make(map[int]ContentKind, len(items))
	}
	for _, item := range items {
		if prev, ok := seen[item.Order()]; ok {
			return fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateOrder, item.Order(), prev, item.Kind())
		}
		seen[item.Order()] = item.Kind()
	}
	return nil
}

// DeleteByChapter removes every content item of a chapter, leaving the chapter row.
func (d *Database) DeleteByChapter(chapterID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range []string{"headings", "paragraphs", "images", "data_tables"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE chapter_id=?`, chapterID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Content reads
// ---------------------------------------------------------------------------

const (
	selectHeadings   = `SELECT id,chapter_id,order_index,text FROM headings WHERE chapter_id=?`
	selectParagraphs = `SELECT id,chapter_id,order_index,text FROM paragraphs WHERE chapter_id=?`
	selectImages     = `SELECT id,chapter_id,order_index,path,alt_text FROM images WHERE chapter_id=?`
	selectTables     = `SELECT id,chapter_id,order_index,html FROM data_tables WHERE chapter_id=?`

	// instr is case-sensitive, unlike LIKE.
	occurrenceFilter = ` AND instr(text, ?) > 0`
	byOrder          = ` ORDER BY order_index`
)

func scanHeading(rows *sql.Rows) (ContentItem, error) {
	var h Heading
	err := rows.Scan(&h.ID, &h.ChapterID, &h.OrderIndex, &h.Text)
	return &h, err
}

func scanParagraph(rows *sql.Rows) (ContentItem, error) {
	var p Paragraph
	err := rows.Scan(&p.ID, &p.ChapterID, &p.OrderIndex, &p.Text)
	return &p, err
}

func scanImage(rows *sql.Rows) (ContentItem, error) {
	var i Image
	err := rows.Scan(&i.ID, &i.ChapterID, &i.OrderIndex, &i.Path, &i.AltText)
	return &i, err
}

func scanTable(rows *sql.Rows) (ContentItem, error) {
	var t Table
	err := rows.Scan(&t.ID, &t.ChapterID, &t.OrderIndex, &t.HTML)
	return &t, err
}

func (d *Database) queryItems(query string, scan func(*sql.Rows) (ContentItem, error), args ...any) ([]ContentItem, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// sortByOrder stable-sorts items ascending by order index.
func sortByOrder(items []ContentItem) {
	slices.SortStableFunc(items, func(a, b ContentItem) int {
		return cmp.Compare(a.Order(), b.Order())
	})
}

// GetOrdered reassembles a chapter: the four variant collections are read
// independently, concatenated and stable-sorted by order index.
func (d *Database) GetOrdered(chapterID int64) ([]ContentItem, error) {
	var all []ContentItem
	for _, q := range []struct {
		query string
		scan  func(*sql.Rows) (ContentItem, error)
	}{
		{selectHeadings, scanHeading},
		{selectParagraphs, scanParagraph},
		{selectImages, scanImage},
		{selectTables, scanTable},
	} {
		items, err := d.queryItems(q.query+byOrder, q.scan, chapterID)
		if err != nil {
			return nil, fmt.Errorf("chapter %d content: %w", chapterID, err)
		}
		all = append(all, items...)
	}
	sortByOrder(all)
	return all, nil
}

// SearchOccurrence returns, in chapter order, every chapter of the book with at
// least one heading or paragraph containing query (case-sensitive). Chapters
// without matches are left out entirely. An empty query matches nothing.
func (d *Database) SearchOccurrence(bookID int64, query string) ([]ChapterMatches, error) {
	if query == "" {
		return []ChapterMatches{}, nil
	}
	chapters, err := d.GetChapters(bookID)
	if err != nil {
		return nil, err
	}

	results := []ChapterMatches{}
	for _, ch := range chapters {
		headings, err := d.queryItems(selectHeadings+occurrenceFilter+byOrder, scanHeading, ch.ID, query)
		if err != nil {
			return nil, fmt.Errorf("search headings: %w", err)
		}
		paragraphs, err := d.queryItems(selectParagraphs+occurrenceFilter+byOrder, scanParagraph, ch.ID, query)
		if err != nil {
			return nil, fmt.Errorf("search paragraphs: %w", err)
		}
		matches := append(headings, paragraphs...)
		if len(matches) == 0 {
			continue
		}
		sortByOrder(matches)
		results = append(results, ChapterMatches{Chapter: ch, Items: matches})
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (d *Database) GetBook(id int64) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT id,title,author,cover_path,digest FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.CoverPath, &b.Digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindBookByDigest returns the first book parsed from identical content HTML.
func (d *Database) FindBookByDigest(digest string) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT id,title,author,cover_path,digest FROM books WHERE digest=? ORDER BY id LIMIT 1`, digest).
		Scan(&b.ID, &b.Title, &b.Author, &b.CoverPath, &b.Digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("digest %s: %w", digest, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *Database) GetAllBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT id,title,author,cover_path,digest FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.CoverPath, &b.Digest); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// DeleteBook removes a book; chapters and content go with it through ON DELETE CASCADE.
func (d *Database) DeleteBook(id int64) error {
	result, err := d.db.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	return nil
}

func (d *Database) DeleteAllBooks() error {
	_, err := d.db.Exec(`DELETE FROM books`)
	return err
}

// ---------------------------------------------------------------------------
// Chapters
// ---------------------------------------------------------------------------

func (d *Database) GetChapters(bookID int64) ([]Chapter, error) {
	rows, err := d.db.Query(`SELECT id,book_id,title,order_index FROM chapters WHERE book_id=? ORDER BY order_index`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		var c Chapter
		if err := rows.Scan(&c.ID, &c.BookID, &c.Title, &c.OrderIndex); err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (d *Database) GetChapter(id int64) (*Chapter, error) {
	var c Chapter
	err := d.db.QueryRow(`SELECT id,book_id,title,order_index FROM chapters WHERE id=?`, id).
		Scan(&c.ID, &c.BookID, &c.Title, &c.OrderIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chapter %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *Database) GetChapterByOrder(bookID int64, orderIndex int) (*Chapter, error) {
	var c Chapter
	err := d.db.QueryRow(`SELECT id,book_id,title,order_index FROM chapters WHERE book_id=? AND order_index=?`, bookID, orderIndex).
		Scan(&c.ID, &c.BookID, &c.Title, &c.OrderIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %d chapter %d: %w", bookID, orderIndex, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChapterTitles lists chapter titles of a book in order, for a table of contents.
func (d *Database) ChapterTitles(bookID int64) ([]string, error) {
	rows, err := d.db.Query(`SELECT title FROM chapters WHERE book_id=? ORDER BY order_index ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// ---------------------------------------------------------------------------
// Counts
// ---------------------------------------------------------------------------

func (d *Database) CountChapters(bookID int64) (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM chapters WHERE book_id=?`, bookID).Scan(&n)
	return n, err
}

func (d *Database) ChapterCounts(chapterID int64) (ContentCounts, error) {
	var c ContentCounts
	err := d.db.QueryRow(`SELECT
            (SELECT COUNT(*) FROM headings WHERE chapter_id=?1),
            (SELECT COUNT(*) FROM paragraphs WHERE chapter_id=?1),
            (SELECT COUNT(*) FROM images WHERE chapter_id=?1),
            (SELECT COUNT(*) FROM data_tables WHERE chapter_id=?1)`, chapterID).
		Scan(&c.Headings, &c.Paragraphs, &c.Images, &c.Tables)
	return c, err
}

func (d *Database) BookCounts(bookID int64) (ContentCounts, error) {
	var c ContentCounts
	err := d.db.QueryRow(`SELECT
            (SELECT COUNT(*) FROM headings h JOIN chapters c ON c.id=h.chapter_id WHERE c.book_id=?1),
            (SELECT COUNT(*) FROM paragraphs p JOIN chapters c ON c.id=p.chapter_id WHERE c.book_id=?1),
            (SELECT COUNT(*) FROM images i JOIN chapters c ON c.id=i.chapter_id WHERE c.book_id=?1),
            (SELECT COUNT(*) FROM data_tables t JOIN chapters c ON c.id=t.chapter_id WHERE c.book_id=?1)`, bookID).
		Scan(&c.Headings, &c.Paragraphs, &c.Images, &c.Tables)
	return c, err
}

// ---------------------------------------------------------------------------
// Preferences
// ---------------------------------------------------------------------------

// GetPreference returns the stored value and whether the key was present.
func (d *Database) GetPreference(key string) (string, bool, error) {
	var v string
	err := d.db.QueryRow(`SELECT value FROM preferences WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d *Database) SetPreference(key, value string) error {
	_, err := d.db.Exec(`INSERT INTO preferences(key,value) VALUES(?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func (d *Database) DeletePreference(key string) error {
	_, err := d.db.Exec(`DELETE FROM preferences WHERE key=?`, key)
	return err
}
