package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// selection adapts a single-element goquery selection to Node.
type selection struct {
	sel *goquery.Selection
}

// Parse reads an HTML document and returns its root node.
func Parse(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return selection{sel: doc.Selection}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (Node, error) {
	return Parse(strings.NewReader(s))
}

func (n selection) FindFirst(selector string) (Node, bool) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return selection{sel: found}, true
}

func (n selection) FindAll(selector string) []Node {
	found := n.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selection{sel: s})
	})
	return nodes
}

func (n selection) FindAncestor(match func(Node) bool, maxDepth int) (Node, bool) {
	cur := n.sel.Parent()
	for depth := 0; depth < maxDepth && cur.Length() > 0; depth++ {
		candidate := selection{sel: cur}
		if match(candidate) {
			return candidate, true
		}
		cur = cur.Parent()
	}
	return nil, false
}

func (n selection) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n selection) Fragments() []string {
	fragments := make([]string, 0)
	for _, root := range n.sel.Nodes {
		collectText(root, &fragments)
	}
	return fragments
}

// collectText appends the collapsed text nodes below node, skipping script
// and style content.
func collectText(node *html.Node, out *[]string) {
	switch node.Type {
	case html.TextNode:
		if text := collapse(node.Data); text != "" {
			*out = append(*out, text)
		}
		return
	case html.ElementNode:
		if node.Data == "script" || node.Data == "style" {
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, out)
	}
}
