package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"bookreader/library"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dbOverride string

	cfg     *library.Config
	logger  *log.Logger
	manager *library.LibraryManager
)

var rootCmd = &cobra.Command{
	Use:   "bookreader",
	Short: "Download, store and read illustrated books in the terminal",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = library.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if dbOverride != "" {
			cfg.Database.Path = dbOverride
		}
		logger = library.NewLogger(cfg.Logging)
		manager, err = library.NewLibraryManager(cfg, logger)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "bookreader.toml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "SQLite database path (overrides config)")

	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete every book")
	readCmd.Flags().IntVarP(&pageSize, "page-size", "n", 0, "Items per page (0 picks from terminal width)")
	resumeCmd.Flags().IntVarP(&pageSize, "page-size", "n", 0, "Items per page (0 picks from terminal width)")

	rootCmd.AddCommand(ingestCmd, booksCmd, tocCmd, readCmd, resumeCmd, searchCmd, deleteCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if manager != nil {
		manager.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

// ------------------ ingest ------------------

var ingestCmd = &cobra.Command{
	Use:   "ingest <url-or-dir>...",
	Short: "Download (or read from disk) book archives and store them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  handleIngest,
}

func handleIngest(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, src := range args {
		var (
			id  int64
			err error
		)
		if isURL(src) {
			id, err = manager.IngestURL(cmd.Context(), src, func(pct int) {
				fmt.Printf("\rDownloading %s... %3d%%", truncateString(src, 50), pct)
			})
			fmt.Println()
		} else {
			id, err = manager.IngestDir(src)
		}
		if err != nil {
			failed++
			logger.Error().Err(err).Str("source", src).Msg("ingestion failed")
			fmt.Printf("Error ingesting %s: %v\n", src, err)
			continue
		}
		book, err := manager.GetBook(id)
		if err != nil {
			return err
		}
		fmt.Printf("Added book ID %d: %s by %s\n", book.ID, book.Title, book.Author)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(args))
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ------------------ books ------------------

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List stored books",
	Args:  cobra.NoArgs,
	RunE:  handleListBooks,
}

func handleListBooks(cmd *cobra.Command, args []string) error {
	books, err := manager.GetAllBooks()
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("No books in library.")
		return nil
	}

	rows := make([][]string, 0, len(books))
	for _, b := range books {
		chapters, err := manager.GetChapters(b.ID)
		if err != nil {
			return err
		}
		counts, err := manager.BookCounts(b.ID)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			strconv.FormatInt(b.ID, 10),
			truncateString(b.Title, 40),
			truncateString(b.Author, 25),
			strconv.Itoa(len(chapters)),
			strconv.Itoa(counts.Paragraphs),
			strconv.Itoa(counts.Images),
		})
	}
	fmt.Println(renderGrid([]string{"ID", "Title", "Author", "Chapters", "Paragraphs", "Images"}, rows))
	return nil
}

// ------------------ toc ------------------

var tocCmd = &cobra.Command{
	Use:   "toc <book-id>",
	Short: "Show a book's chapters",
	Args:  cobra.ExactArgs(1),
	RunE:  handleTOC,
}

func handleTOC(cmd *cobra.Command, args []string) error {
	book, err := bookArg(args[0])
	if err != nil {
		return err
	}
	chapters, err := manager.GetChapters(book.ID)
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(book.Title))
	fmt.Println(authorStyle.Render(book.Author))
	for _, ch := range chapters {
		fmt.Printf("%4d  %s\n", ch.OrderIndex, ch.Title)
	}
	return manager.State().SetRoute(library.RouteTOC)
}

// ------------------ search ------------------

var searchCmd = &cobra.Command{
	Use:   "search <book-id> <query>",
	Short: "Find exact, case-sensitive occurrences of a phrase in a book",
	Args:  cobra.MinimumNArgs(2),
	RunE:  handleSearch,
}

func handleSearch(cmd *cobra.Command, args []string) error {
	book, err := bookArg(args[0])
	if err != nil {
		return err
	}
	query := strings.Join(args[1:], " ")

	results, err := manager.Search(book.ID, query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No occurrences of '%s' in %s.\n", query, book.Title)
		return nil
	}

	total := 0
	for _, ch := range results {
		fmt.Println(chapterStyle.Render(fmt.Sprintf("%d. %s", ch.Chapter.OrderIndex, ch.Chapter.Title)))
		for _, hit := range ch.Hits {
			for _, s := range hit.Snippets {
				total++
				fmt.Printf("  [%d] ...%s%s%s...\n", hit.Item.Order(), s.Before, matchStyle.Render(s.Match), s.After)
			}
		}
	}
	fmt.Printf("\n%d occurrence(s) in %d chapter(s).\n", total, len(results))
	return manager.State().SetRoute(library.RouteSearch)
}

// ------------------ delete ------------------

var deleteAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete [book-id]",
	Short: "Delete a book with all its chapters and content",
	Args:  cobra.MaximumNArgs(1),
	RunE:  handleDelete,
}

func handleDelete(cmd *cobra.Command, args []string) error {
	if deleteAll {
		books, err := manager.GetAllBooks()
		if err != nil {
			return err
		}
		if err := manager.DeleteAllBooks(); err != nil {
			return err
		}
		if err := manager.State().SetRoute(library.RouteLibrary); err != nil {
			return err
		}
		fmt.Printf("Deleted %d book(s).\n", len(books))
		return nil
	}
	if len(args) == 0 {
		return errors.New("a book id or --all is required")
	}
	book, err := bookArg(args[0])
	if err != nil {
		return err
	}
	if err := manager.DeleteBook(book.ID); err != nil {
		return err
	}
	if cur, err := manager.State().CurrentBook(); err == nil && cur != nil && cur.ID == book.ID {
		if err := manager.State().SetRoute(library.RouteLibrary); err != nil {
			return err
		}
	}
	fmt.Printf("Deleted '%s'.\n", book.Title)
	return nil
}

// ------------------ helpers ------------------

func bookArg(s string) (*library.Book, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid book ID: %s", s)
	}
	book, err := manager.GetBook(id)
	if errors.Is(err, library.ErrNotFound) {
		return nil, fmt.Errorf("book with ID %d not found", id)
	}
	return book, err
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
