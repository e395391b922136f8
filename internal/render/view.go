// Package render plays the host: it draws the vault's table view into the
// live tree and renders single documents for reading.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/tablelens/internal/classify"
	"github.com/dgallion1/tablelens/internal/dom"
	"github.com/dgallion1/tablelens/internal/rowlink"
	"github.com/dgallion1/tablelens/internal/vault"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"
)

// NameColumn heads the link column of the view.
const NameColumn = "Name"

// Row is one document as shown in the view.
type Row struct {
	Path   string
	Name   string
	Fields map[string]string
}

// Table is the data behind a table view.
type Table struct {
	Columns []string
	Rows    []Row
}

// Source lists documents and returns their raw bytes.
type Source interface {
	List(folder string) ([]vault.Doc, error)
	ReadRaw(rel string) ([]byte, error)
}

// Renderer rebuilds the table view of one vault folder.
type Renderer struct {
	src    Source
	tree   *dom.Tree
	folder string
	title  string
	log    *slog.Logger
}

// New creates a renderer drawing folder into tree.
func New(src Source, tree *dom.Tree, folder string, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	title := folder
	if title == "" {
		title = "vault"
	}
	return &Renderer{src: src, tree: tree, folder: folder, title: title, log: log}
}

// Load reads the documents of the folder into a Table. Columns after Name
// are the frontmatter keys in first-seen order.
func (r *Renderer) Load(ctx context.Context) (Table, error) {
	docs, err := r.src.List(r.folder)
	if err != nil {
		return Table{}, fmt.Errorf("list %q: %w", r.folder, err)
	}

	t := Table{Columns: []string{NameColumn}}
	seen := map[string]bool{NameColumn: true}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return Table{}, err
		}
		raw, err := r.src.ReadRaw(d.Ref.Path)
		if err != nil {
			r.log.Debug("skipping unreadable document", "path", d.Ref.Path, "error", err)
			continue
		}
		keys, fields := Frontmatter(raw)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, Row{Path: d.Ref.Path, Name: d.Ref.Name(), Fields: fields})
	}
	return t, nil
}

// Render rebuilds the view and swaps it into the tree.
func (r *Renderer) Render(ctx context.Context) error {
	t, err := r.Load(ctx)
	if err != nil {
		return err
	}
	page := Page(r.title, t)
	r.tree.Update(func(doc *html.Node) bool {
		for c := doc.FirstChild; c != nil; {
			next := c.NextSibling
			doc.RemoveChild(c)
			c = next
		}
		doc.AppendChild(page)
		return true
	})
	r.log.Debug("view rendered", "folder", r.folder, "rows", len(t.Rows), "columns", len(t.Columns))
	return nil
}

// Page builds the <html> element for a table view.
func Page(title string, t Table) *html.Node {
	root := dom.Element(atom.Html)
	head := dom.Element(atom.Head)
	titleEl := dom.Element(atom.Title)
	dom.SetText(titleEl, title)
	head.AppendChild(titleEl)
	root.AppendChild(head)

	body := dom.Element(atom.Body)
	container := dom.Element(atom.Div,
		"class", classify.ViewContainerClass,
		classify.ViewTypeAttr, classify.TableViewType,
	)
	container.AppendChild(tableNode(t))
	body.AppendChild(container)
	root.AppendChild(body)
	return root
}

func tableNode(t Table) *html.Node {
	table := dom.Element(atom.Table)
	thead := dom.Element(atom.Thead)
	hr := dom.Element(atom.Tr)
	for _, c := range t.Columns {
		th := dom.Element(atom.Th)
		dom.SetText(th, c)
		hr.AppendChild(th)
	}
	thead.AppendChild(hr)
	table.AppendChild(thead)

	tbody := dom.Element(atom.Tbody)
	for _, row := range t.Rows {
		tr := dom.Element(atom.Tr)
		name := dom.Element(atom.Td)
		link := dom.Element(atom.A, "class", "internal-link", rowlink.CanonicalAttr, row.Path, "href", "/docs/"+row.Path)
		dom.SetText(link, row.Name)
		name.AppendChild(link)
		tr.AppendChild(name)
		for _, c := range t.Columns[1:] {
			td := dom.Element(atom.Td)
			dom.SetText(td, row.Fields[c])
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	return table
}

// Frontmatter parses the leading YAML block of raw. It returns the keys in
// document order and their values flattened to strings. Malformed blocks
// yield nothing.
func Frontmatter(raw []byte) ([]string, map[string]string) {
	block, ok := frontmatterBlock(string(raw))
	if !ok {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil || len(doc.Content) == 0 {
		return nil, nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, nil
	}

	var keys []string
	fields := make(map[string]string, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := strings.TrimSpace(m.Content[i].Value)
		if k == "" {
			continue
		}
		if _, dup := fields[k]; !dup {
			keys = append(keys, k)
		}
		fields[k] = flatten(m.Content[i+1])
	}
	return keys, fields
}

func frontmatterBlock(text string) (string, bool) {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			return strings.Join(lines[1:i], "\n"), true
		}
	}
	return "", false
}

func flatten(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if s := flatten(c); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case yaml.AliasNode:
		if n.Alias != nil {
			return flatten(n.Alias)
		}
	}
	return ""
}
