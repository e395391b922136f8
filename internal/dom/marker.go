package dom

import "golang.org/x/net/html"

// MarkerAttr tags every node the engine creates.
const MarkerAttr = "data-tablelens"

// Marker identifies the kind of an injected node.
type Marker string

const (
	MarkerHeader  Marker = "header"
	MarkerCell    Marker = "cell"
	MarkerControl Marker = "control"
)

// Mark tags n as injected with kind m.
func Mark(n *html.Node, m Marker) {
	SetAttr(n, MarkerAttr, string(m))
	SetAttr(n, "class", "tablelens-"+string(m))
}

// IsMarked reports whether n carries any injection marker.
func IsMarked(n *html.Node) bool {
	_, ok := Attr(n, MarkerAttr)
	return ok
}

// HasMarker reports whether n is an injected node of kind m.
func HasMarker(n *html.Node, m Marker) bool {
	v, ok := Attr(n, MarkerAttr)
	return ok && v == string(m)
}

// HasMarkedChild reports whether any element child of n carries marker m.
func HasMarkedChild(n *html.Node, m Marker) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if HasMarker(c, m) {
			return true
		}
	}
	return false
}

// RemoveMarked detaches every injected node under root and returns how many
// were removed.
func RemoveMarked(root *html.Node) int {
	marked := FindAll(root, IsMarked)
	n := 0
	for _, m := range marked {
		// A marked node nested in another marked node goes with its parent.
		if m.Parent == nil || !Attached(root, m) {
			continue
		}
		Detach(m)
		n++
	}
	return n
}
