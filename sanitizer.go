package htmlsanitizer

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a sanitized fragment tree. It is returned by
// Policy.Sanitize/SanitizeReader and can be serialized on demand, or
// unwrapped back to the *html.Node representation for further,
// caller-owned post-processing.
type Document struct {
	root *html.Node
}

// Node returns the underlying *html.Node tree, rooted at a synthetic
// DocumentNode whose children are the sanitized fragment. The caller
// exclusively owns the returned tree; no further Sanitize call
// touches it.
func (d *Document) Node() *html.Node {
	return d.root
}

// String serializes the sanitized fragment to an HTML string.
func (d *Document) String() string {
	var b strings.Builder
	_ = d.Render(&b)
	return b.String()
}

// Render writes the sanitized fragment to w as UTF-8 HTML, with no
// BOM and no doctype.
func (d *Document) Render(w io.Writer) error {
	return render(w, d.root)
}

// urlRegexp matches http/https URLs inside plain text, used only by
// the Linkify add-on.
var urlRegexp = regexp.MustCompile(`https?://[^\s<>"]+[^\s<>".,;:!?)\]]`)

// foreignNamespaces holds the namespaces x/net/html assigns to
// elements parsed inside foreign content (SVG, MathML). Elements in
// these namespaces are always unwrapped rather than kept, regardless
// of whether their local name happens to collide with an HTML tag
// that is in the kept-tags set: checking namespace ahead of the tag
// whitelist is what makes this the stricter of the two namespace
// policies the core allows.
var foreignNamespaces = map[string]bool{
	"svg":  true,
	"math": true,
}

// walkItem is one unit of work for the iterative sanitizing walk: a
// source node awaiting a decision, and the destination node in the
// output tree its accepted form (or its promoted children, if
// unwrapped) should attach to.
type walkItem struct {
	src    *html.Node
	attach *html.Node
	depth  int
}

// sanitize walks the children of fragmentRoot (the parser's synthetic
// root) and builds a new tree satisfying p. The walk is iterative —
// an explicit, heap-allocated stack rather than Go call recursion —
// so that adversarially deep input cannot exhaust the goroutine
// stack; each source node is visited exactly once, parent before
// children, matching the contract of a depth-first traversal.
func (p *Policy) sanitize(fragmentRoot *html.Node) *html.Node {
	if p.linkify {
		fragmentRoot = linkify(fragmentRoot)
	}

	out := &html.Node{Type: html.DocumentNode}

	stack := make([]walkItem, 0, 64)
	pushChildren(&stack, fragmentRoot, out, 1)

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch item.src.Type {
		case html.TextNode:
			appendChild(item.attach, &html.Node{Type: html.TextNode, Data: item.src.Data})

		case html.CommentNode:
			if !p.stripComments {
				appendChild(item.attach, &html.Node{Type: html.CommentNode, Data: item.src.Data})
			}

		case html.DoctypeNode:
			// Dropped: fragment output carries no doctype.

		case html.ElementNode:
			p.walkElement(item, &stack)

		default:
			// Document / ProcessingInstruction / synthetic container:
			// descend without emitting a node of our own.
			pushChildren(&stack, item.src, item.attach, item.depth)
		}
	}

	return out
}

// walkElement makes the per-element decision of the sanitizing core:
// clean-content tags drop their subtree outright, tags in the
// whitelist are kept (with attributes filtered and transformers run),
// and everything else — including foreign SVG/MathML content and
// tags past MaxDepth — is unwrapped, promoting children into the
// current attachment point.
func (p *Policy) walkElement(item walkItem, stack *[]walkItem) {
	n := item.src
	tag := strings.ToLower(n.Data)

	if foreignNamespaces[n.Namespace] {
		pushChildren(stack, n, item.attach, item.depth+1)
		return
	}

	if p.cleanContentTags[tag] {
		return
	}

	tooDeep := p.maxDepth > 0 && item.depth > p.maxDepth

	if !p.tags[tag] || tooDeep {
		pushChildren(stack, n, item.attach, item.depth+1)
		return
	}

	kept := &html.Node{
		Type:      html.ElementNode,
		DataAtom:  n.DataAtom,
		Data:      tag,
		Namespace: n.Namespace,
		Attr:      p.filterAttrs(tag, cloneAttrs(n.Attr)),
	}

	if tag == "a" && p.linkRel != "" && hasAttr(n.Attr, "href") {
		kept.Attr = setAttr(kept.Attr, "rel", p.linkRel)
	}

	for _, t := range p.transformers {
		if kept = t(kept); kept == nil {
			return
		}
	}

	appendChild(item.attach, kept)
	pushChildren(stack, n, kept, item.depth+1)
}

// pushChildren pushes src's children onto stack in reverse document
// order, so that popping the stack (LIFO) visits them in forward
// document order — the standard technique for turning a recursive
// preorder traversal into an explicit-stack iterative one.
func pushChildren(stack *[]walkItem, src, attach *html.Node, depth int) {
	var children []*html.Node
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	for i := len(children) - 1; i >= 0; i-- {
		*stack = append(*stack, walkItem{src: children[i], attach: attach, depth: depth})
	}
}

func appendChild(parent, child *html.Node) {
	child.Parent = parent
	if parent.LastChild != nil {
		parent.LastChild.NextSibling = child
		child.PrevSibling = parent.LastChild
	} else {
		parent.FirstChild = child
	}
	parent.LastChild = child
}

func cloneAttrs(attrs []html.Attribute) []html.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]html.Attribute, len(attrs))
	copy(out, attrs)
	return out
}

func hasAttr(attrs []html.Attribute, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// isVoidElement reports whether tag is one of the HTML5 void
// elements, serialized without a closing tag.
func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

// linkify returns a copy of fragmentRoot's children with bare
// http/https URLs inside text nodes converted into <a> elements. It
// runs as a pre-pass before the sanitizing walk, since linkification
// is an opt-in add-on rather than part of the mandatory core (see the
// Non-goals note on link-ification in the package-level spec): the
// produced <a> elements are themselves still subject to the ordinary
// tag/attribute/URL policy during the walk that follows.
func linkify(fragmentRoot *html.Node) *html.Node {
	out := &html.Node{Type: fragmentRoot.Type, Data: fragmentRoot.Data}
	for c := fragmentRoot.FirstChild; c != nil; c = c.NextSibling {
		for _, n := range linkifyNode(c) {
			appendChild(out, n)
		}
	}
	return out
}

func linkifyNode(n *html.Node) []*html.Node {
	if n.Type == html.TextNode {
		return linkifyText(n.Data)
	}

	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      cloneAttrs(n.Attr),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		for _, child := range linkifyNode(c) {
			appendChild(clone, child)
		}
	}
	return []*html.Node{clone}
}

func linkifyText(text string) []*html.Node {
	matches := urlRegexp.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []*html.Node{{Type: html.TextNode, Data: text}}
	}

	var out []*html.Node
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, &html.Node{Type: html.TextNode, Data: text[last:m[0]]})
		}
		rawURL := text[m[0]:m[1]]
		link := &html.Node{
			Type: html.ElementNode,
			Data: "a",
			Attr: []html.Attribute{{Key: "href", Val: rawURL}},
		}
		appendChild(link, &html.Node{Type: html.TextNode, Data: rawURL})
		out = append(out, link)
		last = m[1]
	}
	if last < len(text) {
		out = append(out, &html.Node{Type: html.TextNode, Data: text[last:]})
	}
	return out
}
