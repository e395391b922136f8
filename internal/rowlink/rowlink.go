// Package rowlink maps a rendered table row to the document it represents.
package rowlink

import (
	"strings"

	"github.com/dgallion1/tablelens/internal/dom"
	"github.com/dgallion1/tablelens/internal/vault"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// CanonicalAttr carries the host's own link target and takes priority.
	CanonicalAttr = "data-href"
	// HrefAttr is the generic hyperlink attribute.
	HrefAttr = "href"
)

// Resolver maps link text to a document in the repository.
type Resolver interface {
	ResolveLink(href, contextPath string) (vault.Ref, bool)
}

// Link returns the link text of the first anchor-like element in row.
func Link(row *html.Node) (string, bool) {
	if row == nil {
		return "", false
	}
	var href string
	dom.FindFirst(row, func(n *html.Node) bool {
		if !anchorLike(n) || dom.IsMarked(n) || dom.Closest(n, dom.IsMarked) != nil {
			return false
		}
		if v, ok := dom.Attr(n, CanonicalAttr); ok && strings.TrimSpace(v) != "" {
			href = strings.TrimSpace(v)
			return true
		}
		if v, ok := dom.Attr(n, HrefAttr); ok && strings.TrimSpace(v) != "" {
			href = strings.TrimSpace(v)
			return true
		}
		return false
	})
	return href, href != ""
}

func anchorLike(n *html.Node) bool {
	return dom.IsElement(n, atom.A) || dom.HasClass(n, dom.ClassIs("internal-link"))
}

// Resolve returns the document row links to, if any.
func Resolve(row *html.Node, r Resolver, contextPath string) (vault.Ref, bool) {
	href, ok := Link(row)
	if !ok || r == nil {
		return vault.Ref{}, false
	}
	return r.ResolveLink(href, contextPath)
}
