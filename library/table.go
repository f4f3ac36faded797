package library

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RenderTable parses stored table markup into rows of td text. Header cells and
// spans get no special treatment, so rows may differ in length.
func RenderTable(markup string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse table: %w", err)
	}

	grid := [][]string{}
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := []string{}
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, elementText(cell))
		})
		grid = append(grid, cells)
	})
	return grid, nil
}
