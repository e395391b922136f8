package classify

import (
	"strings"
	"testing"

	"github.com/dgallion1/tablelens/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func firstTable(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return dom.FindFirst(doc, func(n *html.Node) bool { return dom.IsElement(n, atom.Table) })
}

func TestIsTargetTable(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{
			name: "table view container",
			src:  `<div class="view-container" data-view-type="table"><div><table></table></div></div>`,
			want: true,
		},
		{
			name: "other view kind",
			src:  `<div class="view-container" data-view-type="cards"><table></table></div>`,
			want: false,
		},
		{
			name: "nearest container wins",
			src:  `<div class="view-container" data-view-type="table"><div class="view-container" data-view-type="list"><table></table></div></div>`,
			want: false,
		},
		{
			name: "marker class on distant ancestor",
			src:  `<section class="page bases-view"><div><div><table></table></div></div></section>`,
			want: true,
		},
		{
			name: "marker class rescues other view kind",
			src:  `<div class="database-view"><div class="view-container" data-view-type="board"><table></table></div></div>`,
			want: true,
		},
		{
			name: "plain table",
			src:  `<div class="markdown-preview"><table><tr><td>x</td></tr></table></div>`,
			want: false,
		},
		{
			name: "container without kind",
			src:  `<div class="view-container"><table></table></div>`,
			want: false,
		},
	}
	for _, tt := range tests {
		tbl := firstTable(t, tt.src)
		if tbl == nil {
			t.Fatalf("%s: fixture has no table", tt.name)
		}
		if got := IsTargetTable(tbl); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestIsTargetTable_NonTable(t *testing.T) {
	if IsTargetTable(nil) {
		t.Error("expected nil node to be rejected")
	}
	doc, _ := html.Parse(strings.NewReader(`<div class="dataview"><p>x</p></div>`))
	p := dom.FindFirst(doc, func(n *html.Node) bool { return dom.IsElement(n, atom.P) })
	if IsTargetTable(p) {
		t.Error("expected non-table element to be rejected")
	}
}

func TestTargetTables(t *testing.T) {
	doc, _ := html.Parse(strings.NewReader(`
		<table id="a"></table>
		<div class="dataview"><table id="b"></table></div>
		<div class="view-container" data-view-type="table"><table id="c"></table></div>`))
	got := TargetTables(doc)
	if len(got) != 2 {
		t.Fatalf("expected 2 target tables, got %d", len(got))
	}
	for i, want := range []string{"b", "c"} {
		if id, _ := dom.Attr(got[i], "id"); id != want {
			t.Errorf("table[%d]: expected id %q, got %q", i, want, id)
		}
	}
}
