// Package synth creates new documents whose frontmatter is inferred from a
// table's visible headers and first row.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/tablelens/internal/dom"
	"github.com/dgallion1/tablelens/internal/notify"
	"github.com/dgallion1/tablelens/internal/vault"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// MaxValueLen is the exclusive upper bound, in characters, for a first-row
// value to be copied into the new document.
const MaxValueLen = 60

// identityColumns name the document itself rather than a field.
var identityColumns = map[string]bool{
	"name": true,
	"file": true,
}

// Field is one frontmatter entry.
type Field struct {
	Key   string
	Value string
}

// Document is the initial content of a synthesized note.
type Document struct {
	Fields []Field
	Body   string
}

func isIdentity(header string) bool {
	return identityColumns[strings.ToLower(strings.TrimSpace(header))]
}

// Build reads table's header row and first body row. Injected cells are
// ignored. Values are paired with headers by position.
func Build(table *html.Node) Document {
	var headers []string
	if hr := dom.HeaderRow(table); hr != nil {
		headers = dom.CellTexts(hr)
	}
	var first []string
	if rows := dom.BodyRows(table); len(rows) > 0 {
		first = dom.CellTexts(rows[0])
	}
	return FromValues(headers, first)
}

// FromValues applies the field rules to headers and one row of values.
// Qualifying values are non-empty, shorter than MaxValueLen, and not under
// an identity column. With no qualifying values every non-identity header
// becomes an empty field, so the schema is still visible.
func FromValues(headers, values []string) Document {
	var fields []Field
	seen := make(map[string]bool)
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" || isIdentity(h) || seen[h] {
			continue
		}
		var v string
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		if v == "" || utf8.RuneCountInString(v) >= MaxValueLen {
			continue
		}
		seen[h] = true
		fields = append(fields, Field{Key: h, Value: v})
	}

	if len(fields) == 0 {
		for _, h := range headers {
			h = strings.TrimSpace(h)
			if h == "" || isIdentity(h) || seen[h] {
				continue
			}
			seen[h] = true
			fields = append(fields, Field{Key: h})
		}
	}
	return Document{Fields: fields}
}

// Compose renders the document as a frontmatter block followed by its body.
func Compose(doc Document) (string, error) {
	if len(doc.Fields) == 0 {
		return "---\n---\n" + doc.Body, nil
	}

	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range doc.Fields {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return "---\n" + buf.String() + "---\n" + doc.Body, nil
}

// Repository persists new documents.
type Repository interface {
	Create(ctx context.Context, path, text string) (vault.Ref, error)
}

// Views opens documents and reports the active one.
type Views interface {
	Open(ref vault.Ref)
	Active() (string, bool)
}

// BaseName is the file name stem of synthesized documents.
const BaseName = "Untitled"

const maxNameAttempts = 100

// Creator persists synthesized documents next to the active document.
type Creator struct {
	repo  Repository
	views Views
	sink  notify.Sink
	log   *slog.Logger
}

// NewCreator wires the collaborators the creation flow needs.
func NewCreator(repo Repository, views Views, sink notify.Sink, log *slog.Logger) *Creator {
	if log == nil {
		log = slog.Default()
	}
	return &Creator{repo: repo, views: views, sink: sink, log: log}
}

// Folder is where a new document goes: the active document's folder, or
// the vault root.
func (c *Creator) Folder() string {
	if active, ok := c.views.Active(); ok {
		return vault.Ref{Path: active}.Folder()
	}
	return ""
}

// Create composes doc, writes it under the first free "Untitled" name and
// opens it. Failures are reported to the user and logged, never retried.
func (c *Creator) Create(ctx context.Context, doc Document) (vault.Ref, error) {
	ref, err := c.create(ctx, doc)
	if err != nil {
		c.log.Error("document synthesis failed", "error", err)
		c.sink.Notify(notify.LevelError, "Failed to create document: "+err.Error())
		return vault.Ref{}, err
	}
	c.views.Open(ref)
	c.sink.Notify(notify.LevelInfo, "Created "+ref.Path)
	return ref, nil
}

func (c *Creator) create(ctx context.Context, doc Document) (vault.Ref, error) {
	text, err := Compose(doc)
	if err != nil {
		return vault.Ref{}, err
	}

	folder := c.Folder()
	for i := range maxNameAttempts {
		name := BaseName + ".md"
		if i > 0 {
			name = fmt.Sprintf("%s %d.md", BaseName, i)
		}
		ref, err := c.repo.Create(ctx, path.Join(folder, name), text)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, vault.ErrExists) {
			return vault.Ref{}, err
		}
	}
	return vault.Ref{}, fmt.Errorf("no free %q name in %q after %d attempts", BaseName, folder, maxNameAttempts)
}
