// Package classify decides which rendered tables belong to a database-style
// view. It is a heuristic: unrecognized tables are skipped silently, and a
// false positive only costs an empty preview column.
package classify

import (
	"github.com/dgallion1/tablelens/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// ViewContainerClass marks the element wrapping one rendered view.
	ViewContainerClass = "view-container"
	// ViewTypeAttr declares which kind of view a container renders.
	ViewTypeAttr = "data-view-type"
	// TableViewType is the view kind whose tables are augmented.
	TableViewType = "table"
)

// MarkerClasses identify structured views regardless of container kind.
var MarkerClasses = map[string]bool{
	"database-view": true,
	"bases-view":    true,
	"dataview":      true,
}

// IsTargetTable reports whether n is a table worth augmenting.
func IsTargetTable(n *html.Node) bool {
	if !dom.IsElement(n, atom.Table) {
		return false
	}

	if c := ViewContainer(n); c != nil {
		if kind, ok := dom.Attr(c, ViewTypeAttr); ok && kind == TableViewType {
			return true
		}
	}

	return dom.Closest(n, func(p *html.Node) bool {
		return dom.HasClass(p, func(c string) bool { return MarkerClasses[c] })
	}) != nil
}

// ViewContainer returns the nearest enclosing view container of n.
func ViewContainer(n *html.Node) *html.Node {
	return dom.Closest(n, func(p *html.Node) bool {
		return dom.HasClass(p, dom.ClassIs(ViewContainerClass))
	})
}

// TargetTables returns every target table under root in document order.
func TargetTables(root *html.Node) []*html.Node {
	return dom.FindAll(root, IsTargetTable)
}
