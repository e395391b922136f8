package rowlink

import (
	"strings"
	"testing"

	"github.com/dgallion1/tablelens/internal/dom"
	"github.com/dgallion1/tablelens/internal/vault"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type mapResolver map[string]string

func (m mapResolver) ResolveLink(href, _ string) (vault.Ref, bool) {
	p, ok := m[href]
	if !ok {
		return vault.Ref{}, false
	}
	return vault.Ref{Path: p}, true
}

func rowOf(t *testing.T, cells string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<table><tr>" + cells + "</tr></table>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return dom.FindFirst(doc, func(n *html.Node) bool { return dom.IsElement(n, atom.Tr) })
}

func TestLink_Priority(t *testing.T) {
	tests := []struct {
		name  string
		cells string
		want  string
		ok    bool
	}{
		{"canonical first", `<td><a data-href="Notes/A" href="https://x/a">A</a></td>`, "Notes/A", true},
		{"href fallback", `<td><a href="Notes/B.md">B</a></td>`, "Notes/B.md", true},
		{"first anchor wins", `<td><a href="first.md">1</a></td><td><a data-href="second">2</a></td>`, "first.md", true},
		{"empty attrs skipped", `<td><a href=" ">x</a><a href="real.md">y</a></td>`, "real.md", true},
		{"internal-link span", `<td><span class="internal-link" data-href="Span">s</span></td>`, "Span", true},
		{"no anchor", `<td>plain</td><td><span data-href="ignored">x</span></td>`, "", false},
	}
	for _, tt := range tests {
		got, ok := Link(rowOf(t, tt.cells))
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: expected (%q, %v), got (%q, %v)", tt.name, tt.want, tt.ok, got, ok)
		}
	}
}

func TestLink_IgnoresInjectedNodes(t *testing.T) {
	row := rowOf(t, `<td>plain</td>`)
	cell := dom.Element(atom.Td)
	dom.Mark(cell, dom.MarkerCell)
	cell.AppendChild(dom.Element(atom.A, "href", "injected.md"))
	row.AppendChild(cell)

	if _, ok := Link(row); ok {
		t.Error("expected links inside injected cells to be ignored")
	}
}

func TestResolve(t *testing.T) {
	r := mapResolver{"Notes/A": "Notes/A.md"}

	ref, ok := Resolve(rowOf(t, `<td><a data-href="Notes/A">A</a></td>`), r, "")
	if !ok || ref.Path != "Notes/A.md" {
		t.Errorf("expected Notes/A.md, got (%v, %v)", ref, ok)
	}

	if _, ok := Resolve(rowOf(t, `<td><a href="missing">m</a></td>`), r, ""); ok {
		t.Error("expected unresolvable link to be absent")
	}
	if _, ok := Resolve(nil, r, ""); ok {
		t.Error("expected nil row to be absent")
	}
}
