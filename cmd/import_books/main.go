package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"bookreader/library"

	"github.com/spf13/cobra"
)

var (
	configFile string
	urlFile    string
	batch      int
	fresh      bool
)

var rootCmd = &cobra.Command{
	Use:   "import_books",
	Short: "Seed the download queue from a URL list and import the next batch of books",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "bookreader.toml", "Configuration file path")
	rootCmd.Flags().StringVarP(&urlFile, "urls", "u", "books.txt", "File with one archive URL per line")
	rootCmd.Flags().IntVarP(&batch, "batch", "b", 0, "Books to import this run (0 imports every queued URL)")
	rootCmd.Flags().BoolVar(&fresh, "fresh", false, "Remove the existing database before importing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := library.LoadConfig(configFile)
	if err != nil {
		return err
	}
	logger := library.NewLogger(cfg.Logging)

	if fresh {
		fmt.Println("Cleaning up existing database files...")
		for _, file := range []string{cfg.Database.Path, cfg.Database.Path + "-shm", cfg.Database.Path + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
			}
		}
	}

	manager, err := library.NewLibraryManager(cfg, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer manager.Close()

	urls, err := readURLs(urlFile)
	if err != nil {
		return err
	}
	state := manager.State()
	if err := state.SeedDownloads(urls); err != nil {
		return err
	}
	next, err := state.NextDownloads(batch)
	if err != nil {
		return err
	}
	if len(next) == 0 {
		fmt.Println("Download queue is empty.")
		return nil
	}

	fmt.Printf("Importing %d book(s)...\n", len(next))
	var mu sync.Mutex
	results := manager.ImportAll(cmd.Context(), next, func(url string, pct int) {
		if pct == 100 {
			mu.Lock()
			fmt.Printf("Downloaded %s\n", truncateString(url, 70))
			mu.Unlock()
		}
	})

	successCount := 0
	var failed []string
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("ERROR %s - %v\n", truncateString(r.URL, 50), r.Err)
			failed = append(failed, r.URL)
			continue
		}
		fmt.Printf("SUCCESS %s (ID: %d)\n", truncateString(r.URL, 50), r.BookID)
		successCount++
	}
	if err := state.RequeueDownloads(failed); err != nil {
		logger.Error().Err(err).Int("urls", len(failed)).Msg("could not requeue failed downloads")
	}
	errorCount := len(failed)

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)
	if left, err := state.AvailableDownloads(); err == nil && len(left) > 0 {
		fmt.Printf("Still queued: %d\n", len(left))
	}

	if successCount > 0 {
		fmt.Println("\nLibrary:")
		books, err := manager.GetAllBooks()
		if err != nil {
			fmt.Printf("Error retrieving books: %v\n", err)
		} else {
			fmt.Printf("%-5s %-40s %-25s\n", "ID", "Title", "Author")
			fmt.Println(strings.Repeat("-", 72))
			for _, book := range books {
				fmt.Println(library.PrettyBook(book))
			}
		}
	}
	return nil
}

// readURLs returns the non-blank, non-comment lines of path.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
