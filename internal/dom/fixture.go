package dom

import (
	"strings"
)

// Element is a node of an in-memory document used as a test fixture.
// An Element with an empty Tag is a text node carrying Text.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Element

	parent *Element
}

// E builds an element with the given attributes and children.
func E(tag string, attrs map[string]string, children ...*Element) *Element {
	return &Element{Tag: tag, Attrs: attrs, Children: children}
}

// T builds a text node.
func T(text string) *Element {
	return &Element{Text: text}
}

// Fixture links parent pointers below root and returns it as a Node.
func Fixture(root *Element) Node {
	link(root)
	return root
}

func link(el *Element) {
	for _, child := range el.Children {
		child.parent = el
		link(child)
	}
}

func (el *Element) FindFirst(selector string) (Node, bool) {
	group := parseSelector(selector)
	var found *Element
	el.walk(func(d *Element) bool {
		if group.matches(d) {
			found = d
			return false
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

func (el *Element) FindAll(selector string) []Node {
	group := parseSelector(selector)
	nodes := make([]Node, 0)
	el.walk(func(d *Element) bool {
		if group.matches(d) {
			nodes = append(nodes, d)
		}
		return true
	})
	return nodes
}

func (el *Element) FindAncestor(match func(Node) bool, maxDepth int) (Node, bool) {
	cur := el.parent
	for depth := 0; depth < maxDepth && cur != nil; depth++ {
		if match(cur) {
			return cur, true
		}
		cur = cur.parent
	}
	return nil, false
}

func (el *Element) Attr(name string) (string, bool) {
	v, ok := el.Attrs[name]
	return v, ok
}

func (el *Element) Fragments() []string {
	fragments := make([]string, 0)
	var collect func(*Element)
	collect = func(e *Element) {
		if e.Tag == "" {
			if text := collapse(e.Text); text != "" {
				fragments = append(fragments, text)
			}
			return
		}
		for _, child := range e.Children {
			collect(child)
		}
	}
	collect(el)
	return fragments
}

// walk visits the element descendants of el in document order until visit
// returns false.
func (el *Element) walk(visit func(*Element) bool) bool {
	for _, child := range el.Children {
		if child.Tag == "" {
			continue
		}
		if !visit(child) || !child.walk(visit) {
			return false
		}
	}
	return true
}

// selectorGroup is a comma-separated list of compound selectors. Only the
// subset used by the extractor is understood: tag names, .class, [attr],
// [attr="v"] and [attr^="v"]. Combinators are not supported.
type selectorGroup []compound

type compound struct {
	tag     string
	classes []string
	attrs   []attrTest
}

type attrTest struct {
	name  string
	op    string // "", "=", "^="
	value string
}

func parseSelector(s string) selectorGroup {
	var group selectorGroup
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		group = append(group, parseCompound(part))
	}
	return group
}

func parseCompound(s string) compound {
	var c compound
	i := 0
	ident := func() string {
		start := i
		for i < len(s) && strings.IndexByte(".[", s[i]) < 0 {
			i++
		}
		return s[start:i]
	}
	c.tag = ident()
	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			c.classes = append(c.classes, ident())
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c
			}
			c.attrs = append(c.attrs, parseAttrTest(s[i+1:i+end]))
			i += end + 1
		default:
			i++
		}
	}
	return c
}

func parseAttrTest(s string) attrTest {
	for _, op := range []string{"^=", "="} {
		if idx := strings.Index(s, op); idx >= 0 {
			return attrTest{
				name:  strings.TrimSpace(s[:idx]),
				op:    op,
				value: strings.Trim(strings.TrimSpace(s[idx+len(op):]), `"'`),
			}
		}
	}
	return attrTest{name: strings.TrimSpace(s)}
}

func (g selectorGroup) matches(el *Element) bool {
	for _, c := range g {
		if c.matches(el) {
			return true
		}
	}
	return false
}

func (c compound) matches(el *Element) bool {
	if c.tag != "" && c.tag != "*" && !strings.EqualFold(c.tag, el.Tag) {
		return false
	}
	classes := strings.Fields(el.Attrs["class"])
	for _, want := range c.classes {
		if !contains(classes, want) {
			return false
		}
	}
	for _, test := range c.attrs {
		v, ok := el.Attrs[test.name]
		if !ok {
			return false
		}
		switch test.op {
		case "=":
			if v != test.value {
				return false
			}
		case "^=":
			if !strings.HasPrefix(v, test.value) {
				return false
			}
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
