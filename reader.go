package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bookreader/library"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))

	authorStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#888888"))

	chapterStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))

	imageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))

	matchStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

var pageSize int

var readCmd = &cobra.Command{
	Use:   "read <book-id> [chapter]",
	Short: "Read a book page by page",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  handleReadBook,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue reading where the last session stopped",
	Args:  cobra.NoArgs,
	RunE:  handleResume,
}

func handleReadBook(cmd *cobra.Command, args []string) error {
	book, err := bookArg(args[0])
	if err != nil {
		return err
	}
	chapter := 1
	if len(args) == 2 {
		if chapter, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid chapter: %s", args[1])
		}
	}
	return readLoop(book, chapter, 0)
}

func handleResume(cmd *cobra.Command, args []string) error {
	st, err := manager.State().Restore()
	if err != nil {
		return err
	}
	if st.Book == nil {
		fmt.Println("Nothing to resume. Use 'read <book-id>' first.")
		return nil
	}
	book, err := manager.GetBook(st.Book.ID)
	if errors.Is(err, library.ErrNotFound) {
		fmt.Printf("'%s' is no longer in the library.\n", st.Book.Title)
		return nil
	}
	if err != nil {
		return err
	}
	chapter := st.ChapterOrder
	if chapter == 0 {
		chapter = 1
	}
	return readLoop(book, chapter, st.ElementOrder)
}

// readLoop pages through a book from chapter, opening on the page holding
// element when element is non-zero.
func readLoop(book *library.Book, chapter, element int) error {
	state := manager.State()
	if err := state.SetCurrentBook(book); err != nil {
		return err
	}
	if err := state.SetRoute(library.RouteReading); err != nil {
		return err
	}
	defer state.Save()

	width := terminalWidth()
	size := pageSize
	if size <= 0 {
		size = cfg.Reading.ChunkSize
	}
	if size <= 0 {
		size = library.ChunkSizeForWidth(width)
	}

	sc := bufio.NewScanner(os.Stdin)
	for {
		ch, err := manager.GetChapterByOrder(book.ID, chapter)
		if err != nil {
			return err
		}
		pages, err := manager.ChapterPages(ch.ID, size)
		if err != nil {
			return err
		}
		if err := state.SetChapterOrder(ch.OrderIndex); err != nil {
			return err
		}

		page := 0
		if element > 0 {
			if i, ok := library.LocateChunk(pages, element); ok {
				page = i
			}
			element = 0
		}

		next, err := pageLoop(sc, book, ch, pages, page, width)
		if err != nil || next == 0 {
			return err
		}
		if _, err := manager.GetChapterByOrder(book.ID, chapter+next); errors.Is(err, library.ErrNotFound) {
			fmt.Println("No more chapters in that direction.")
			continue
		}
		chapter += next
	}
}

// pageLoop shows the pages of one chapter. It returns +1 or -1 to move to a
// neighbouring chapter and 0 to stop reading.
func pageLoop(sc *bufio.Scanner, book *library.Book, ch *library.Chapter, pages [][]library.ContentItem, page, width int) (int, error) {
	state := manager.State()
	for {
		fmt.Println(titleStyle.Render(book.Title) + "  " + chapterStyle.Render(ch.Title))
		var visible []library.ContentItem
		if len(pages) == 0 {
			fmt.Println("(empty chapter)")
		} else {
			visible = pages[page]
			for _, item := range visible {
				fmt.Println(renderItem(item, width))
			}
		}
		if err := state.SetPage(visible); err != nil {
			return 0, err
		}
		fmt.Println(statusStyle.Render(fmt.Sprintf("chapter %d, page %d/%d  [n]ext [p]rev [c]hapter+ [b]ack chapter [q]uit",
			ch.OrderIndex, page+1, max(len(pages), 1))))

		fmt.Print("> ")
		if !sc.Scan() {
			return 0, sc.Err()
		}
		switch strings.TrimSpace(sc.Text()) {
		case "n", "":
			if page+1 < len(pages) {
				page++
			} else {
				return 1, nil
			}
		case "p":
			if page > 0 {
				page--
			} else {
				return -1, nil
			}
		case "c":
			return 1, nil
		case "b":
			return -1, nil
		case "q":
			return 0, nil
		default:
			fmt.Println("Unknown command.")
		}
	}
}

func renderItem(item library.ContentItem, width int) string {
	switch it := item.(type) {
	case *library.Heading:
		return headingStyle.Render(it.Text)
	case *library.Paragraph:
		return lipgloss.NewStyle().Width(width).Render(it.Text) + "\n"
	case *library.Image:
		label := it.AltText
		if label == "" {
			label = "image"
		}
		return imageStyle.Render(fmt.Sprintf("[%s] %s", label, it.Path))
	case *library.Table:
		rows, err := library.RenderTable(it.HTML)
		if err != nil || len(rows) == 0 {
			return "(table)"
		}
		return renderGrid(nil, rows)
	}
	return ""
}

func renderGrid(headers []string, rows [][]string) string {
	t := table.New().Border(lipgloss.NormalBorder()).Rows(rows...)
	if len(headers) > 0 {
		t = t.Headers(headers...)
	}
	return t.String()
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
