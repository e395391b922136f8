package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Rows returns the rows that belong directly to table, skipping rows of
// nested tables.
func Rows(table *html.Node) []*html.Node {
	var rows []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			rows = append(rows, c)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			rows = append(rows, Children(c, atom.Tr)...)
		}
	}
	return rows
}

// HeaderRow returns the row holding the column names: the first row of the
// <thead>, or else a leading row made only of <th> cells.
func HeaderRow(table *html.Node) *html.Node {
	for _, sec := range Children(table, atom.Thead) {
		if rows := Children(sec, atom.Tr); len(rows) > 0 {
			return rows[0]
		}
	}
	rows := Rows(table)
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]
	cells := Children(first, atom.Th, atom.Td)
	if len(cells) == 0 {
		return nil
	}
	for _, c := range cells {
		if c.DataAtom != atom.Th {
			return nil
		}
	}
	return first
}

// BodyRows returns the data rows of table in order: every row outside
// <thead> and <tfoot> other than the header row.
func BodyRows(table *html.Node) []*html.Node {
	header := HeaderRow(table)
	var out []*html.Node
	for _, r := range Rows(table) {
		if r == header || IsMarked(r) {
			continue
		}
		if p := r.Parent; p != nil && (p.DataAtom == atom.Thead || p.DataAtom == atom.Tfoot) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DataCells returns the th/td cells of row that the engine did not create.
func DataCells(row *html.Node) []*html.Node {
	var out []*html.Node
	for _, c := range Children(row, atom.Th, atom.Td) {
		if !IsMarked(c) {
			out = append(out, c)
		}
	}
	return out
}

// CellTexts returns the trimmed text of each data cell in row.
func CellTexts(row *html.Node) []string {
	cells := DataCells(row)
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = TextContent(c)
	}
	return out
}
