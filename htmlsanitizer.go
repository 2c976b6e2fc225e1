package htmlsanitizer

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitize parses htmlStr in body-fragment context, applies p, and
// returns the sanitized HTML. If p is nil, DefaultPolicy is used.
func Sanitize(htmlStr string, p *Policy) (string, error) {
	return SanitizeReader(strings.NewReader(htmlStr), p)
}

// SanitizeReader reads HTML from r, applies p, and returns the
// sanitized HTML string. If p is nil, DefaultPolicy is used.
func SanitizeReader(r io.Reader, p *Policy) (string, error) {
	if p == nil {
		p = DefaultPolicy()
	}
	doc, err := p.SanitizeReader(r)
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}

// Sanitize parses input in body-fragment context and returns a
// sanitized Document.
func (p *Policy) Sanitize(input string) (*Document, error) {
	return p.SanitizeReader(strings.NewReader(input))
}

// SanitizeReader reads HTML from r in body-fragment context and
// returns a sanitized Document.
func (p *Policy) SanitizeReader(r io.Reader) (*Document, error) {
	fragment, err := parseFragment(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: p.sanitize(fragment)}, nil
}

// parseFragment parses r as an HTML fragment in a <body> context,
// returning the synthetic container node whose children are the
// parsed forest. html.ParseFragment requires a context node; body is
// the least restrictive choice and matches the fragment-in-body-
// context scope this package supports (full-document sanitization is
// out of scope).
func parseFragment(r io.Reader) (*html.Node, error) {
	bodyCtx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, bodyCtx)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
		appendChild(root, n)
	}
	return root, nil
}

// CleanText HTML-escapes input so the result can be safely inserted
// into an attribute or text context; no elements survive. This is the
// aggressive sibling of Sanitize for callers who want plain text, not
// a sanitized markup subset.
func CleanText(input string) (string, error) {
	return html.EscapeString(input), nil
}

// StripTags removes all HTML tags and returns the concatenated text
// content, with character references already decoded by the parser.
func StripTags(htmlStr string) (string, error) {
	fragment, err := parseFragment(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(fragment)
	return b.String(), nil
}

// SetAttr sets (or adds) the attribute key=val on node n. It is
// intended for use inside Transformer functions.
func SetAttr(n *html.Node, key, val string) {
	n.Attr = setAttr(n.Attr, key, val)
}

// GetAttr returns the value of the named attribute on n, or "" if not
// present.
func GetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// RemoveAttr removes the named attribute from n if present.
func RemoveAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}
