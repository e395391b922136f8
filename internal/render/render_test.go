package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/tablelens/internal/classify"
	"github.com/dgallion1/tablelens/internal/dom"
	"github.com/dgallion1/tablelens/internal/rowlink"
	"github.com/dgallion1/tablelens/internal/vault"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

type memSource map[string]string

func (m memSource) List(string) ([]vault.Doc, error) {
	var docs []vault.Doc
	for _, p := range []string{"Projects/Alpha.md", "Projects/Beta.md", "Projects/Broken.md"} {
		if _, ok := m[p]; ok {
			docs = append(docs, vault.Doc{Ref: vault.Ref{Path: p}})
		}
	}
	return docs, nil
}

func (m memSource) ReadRaw(rel string) ([]byte, error) {
	s, ok := m[rel]
	if !ok {
		return nil, errors.New("missing")
	}
	return []byte(s), nil
}

func (m memSource) ReadText(_ context.Context, rel string) (string, error) {
	s, ok := m[rel]
	if !ok {
		return "", errors.New("missing")
	}
	return s, nil
}

func TestFrontmatter(t *testing.T) {
	keys, fields := Frontmatter([]byte("---\nstatus: active\ntags: [a, b]\nowner:\ndue: 2024-05-01\n---\nbody"))
	if diff := cmp.Diff([]string{"status", "tags", "owner", "due"}, keys); diff != "" {
		t.Errorf("unexpected keys (-want +got):\n%s", diff)
	}
	want := map[string]string{"status": "active", "tags": "a, b", "owner": "", "due": "2024-05-01"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("unexpected fields (-want +got):\n%s", diff)
	}

	for _, raw := range []string{"no frontmatter", "---\nunterminated: true\n", "---\n- a list\n---\n"} {
		if keys, _ := Frontmatter([]byte(raw)); len(keys) != 0 {
			t.Errorf("expected no keys for %q, got %v", raw, keys)
		}
	}
}

func TestRender_BuildsTargetTable(t *testing.T) {
	src := memSource{
		"Projects/Alpha.md":  "---\nstatus: active\n---\nAlpha",
		"Projects/Beta.md":   "---\nowner: sam\nstatus: done\n---\nBeta",
		"Projects/Broken.md": "plain body",
	}
	tree, err := dom.ParseTree("")
	if err != nil {
		t.Fatal(err)
	}
	r := New(src, tree, "Projects", nil)
	if err := r.Render(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree.Read(func(doc *html.Node) {
		tables := classify.TargetTables(doc)
		if len(tables) != 1 {
			t.Fatalf("expected 1 target table, got %d", len(tables))
		}
		table := tables[0]
		if diff := cmp.Diff([]string{"Name", "status", "owner"}, dom.CellTexts(dom.HeaderRow(table))); diff != "" {
			t.Errorf("unexpected columns (-want +got):\n%s", diff)
		}
		rows := dom.BodyRows(table)
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		if diff := cmp.Diff([]string{"Beta", "done", "sam"}, dom.CellTexts(rows[1])); diff != "" {
			t.Errorf("unexpected row (-want +got):\n%s", diff)
		}
		href, ok := rowlink.Link(rows[0])
		if !ok || href != "Projects/Alpha.md" {
			t.Errorf("expected canonical link Projects/Alpha.md, got %q", href)
		}
	})

	var notified int
	sub := tree.Observe(func() { notified++ })
	defer sub.Cancel()
	if err := r.Render(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified != 1 {
		t.Errorf("expected one mutation notification per render, got %d", notified)
	}
}

func TestDocView(t *testing.T) {
	src := memSource{
		"Projects/Alpha.md": "---\nstatus: active\n---\n# Alpha\n\nHello <script>alert(1)</script>",
		"notes.txt":         "a < b",
	}
	v := NewDocView(src)

	out, err := v.Render(context.Background(), "Projects/Alpha.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<h1") || !strings.Contains(s, "Alpha</h1>") {
		t.Errorf("expected rendered heading, got %q", s)
	}
	if strings.Contains(s, "<script") || strings.Contains(s, "status: active") {
		t.Errorf("expected sanitized body without frontmatter, got %q", s)
	}

	out, err = v.Render(context.Background(), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "<pre>a &lt; b</pre>" {
		t.Errorf("expected escaped preformatted text, got %q", out)
	}

	if _, err := v.Render(context.Background(), "missing.md"); err == nil {
		t.Error("expected error for missing document")
	}
}
