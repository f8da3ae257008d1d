package dom

import "strings"

// Node is a read-only view of one element in a document tree.
type Node interface {
	// FindFirst returns the first descendant matching selector.
	FindFirst(selector string) (Node, bool)
	// FindAll returns every descendant matching selector in document order.
	FindAll(selector string) []Node
	// FindAncestor walks up at most maxDepth parents and returns the first
	// one for which match reports true. The node itself is not considered.
	FindAncestor(match func(Node) bool, maxDepth int) (Node, bool)
	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
	// Fragments returns the non-empty text nodes under this element in
	// document order, each with its whitespace collapsed to single spaces.
	Fragments() []string
}

// Text flattens the text under n into a single space-separated string.
func Text(n Node) string {
	return strings.Join(n.Fragments(), " ")
}

// collapse trims s and folds internal whitespace runs to one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
