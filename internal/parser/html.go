package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/henrytill/bitcomp-go/internal/types"
	"golang.org/x/net/html"
)

// HTMLParser reads the first <table> of a document. The first row names the
// columns; every later row is one record. Empty cells are left unset.
type HTMLParser struct{}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

func getTextContent(n *html.Node) string {
	var result strings.Builder
	var worklist []*html.Node

	worklist = append(worklist, n)

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if current.Type == html.TextNode {
			result.WriteString(current.Data)
			continue
		}

		for c := current.LastChild; c != nil; c = c.PrevSibling {
			worklist = append(worklist, c)
		}
	}

	return strings.TrimSpace(result.String())
}

func findElement(root *html.Node, name string) *html.Node {
	var worklist []*html.Node
	worklist = append(worklist, root)

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if current.Type == html.ElementNode && strings.EqualFold(current.Data, name) {
			return current
		}

		for c := current.LastChild; c != nil; c = c.PrevSibling {
			worklist = append(worklist, c)
		}
	}

	return nil
}

// tableRows collects the cell texts of every <tr> below table, in document
// order, looking through <thead>, <tbody> and <tfoot>.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var worklist []*html.Node

	for c := table.LastChild; c != nil; c = c.PrevSibling {
		worklist = append(worklist, c)
	}

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if current.Type != html.ElementNode {
			continue
		}

		switch strings.ToLower(current.Data) {
		case "tr":
			var cells []string
			for c := current.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				switch strings.ToLower(c.Data) {
				case "td", "th":
					cells = append(cells, getTextContent(c))
				}
			}
			rows = append(rows, cells)
		case "thead", "tbody", "tfoot":
			for c := current.LastChild; c != nil; c = c.PrevSibling {
				worklist = append(worklist, c)
			}
		}
	}

	return rows
}

func (p *HTMLParser) Parse(reader io.Reader) ([]types.Row, error) {
	doc, err := html.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := findElement(doc, "table")
	if table == nil {
		return []types.Row{}, nil
	}

	cells := tableRows(table)
	if len(cells) == 0 {
		return []types.Row{}, nil
	}

	header := cells[0]
	rows := make([]types.Row, 0, len(cells)-1)
	for i, line := range cells[1:] {
		if len(line) > len(header) {
			return nil, fmt.Errorf("record %d: %d cells but only %d columns", i, len(line), len(header))
		}
		m := make(map[string]any, len(line))
		for j, cell := range line {
			if cell == "" {
				continue
			}
			m[header[j]] = cell
		}
		row, err := types.NewRow(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
