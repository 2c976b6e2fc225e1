package htmlsanitizer

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// rawTextElements have their text children emitted without entity
// encoding, per standard HTML5 serialization. They are not in any
// built-in policy's default tag set; they only appear here if a
// caller's policy explicitly allows them.
var rawTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"title":    true,
}

// renderFrame is one unit of work for the iterative serializer: either
// a node awaiting its open tag/text/comment, or (closeTag set) a
// deferred close tag for an element whose children were already
// pushed.
type renderFrame struct {
	node     *html.Node
	closeTag bool
}

// render writes root (a DocumentNode whose children are the sanitized
// fragment) to w as UTF-8 HTML using a single buffered pass and an
// explicit stack rather than Go call recursion, so that serializing a
// deeply nested tree — the same adversarial shape the sanitizing
// walker in sanitizer.go is built to tolerate — cannot exhaust the
// goroutine stack either.
func render(w io.Writer, root *html.Node) error {
	bw := bufio.NewWriter(w)

	stack := make([]renderFrame, 0, 64)
	pushRenderChildren(&stack, root)

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.closeTag {
			if err := writeCloseTag(bw, frame.node); err != nil {
				return err
			}
			continue
		}

		n := frame.node
		switch n.Type {
		case html.TextNode:
			if _, err := bw.WriteString(html.EscapeString(n.Data)); err != nil {
				return err
			}

		case html.CommentNode:
			if err := writeComment(bw, n); err != nil {
				return err
			}

		case html.ElementNode:
			if err := writeOpenTag(bw, n); err != nil {
				return err
			}
			if isVoidElement(n.Data) {
				continue
			}
			if rawTextElements[n.Data] {
				if err := writeRawText(bw, n); err != nil {
					return err
				}
				if err := writeCloseTag(bw, n); err != nil {
					return err
				}
				continue
			}
			stack = append(stack, renderFrame{node: n, closeTag: true})
			pushRenderChildren(&stack, n)

		default:
			pushRenderChildren(&stack, n)
		}
	}

	return bw.Flush()
}

// pushRenderChildren pushes src's children onto stack in reverse
// document order, so popping the stack (LIFO) visits them in forward
// order — the same technique sanitizer.go's pushChildren uses for the
// sanitizing walk.
func pushRenderChildren(stack *[]renderFrame, src *html.Node) {
	var children []*html.Node
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	for i := len(children) - 1; i >= 0; i-- {
		*stack = append(*stack, renderFrame{node: children[i]})
	}
}

func writeComment(w *bufio.Writer, n *html.Node) error {
	if _, err := w.WriteString("<!--"); err != nil {
		return err
	}
	if _, err := w.WriteString(n.Data); err != nil {
		return err
	}
	_, err := w.WriteString("-->")
	return err
}

// writeOpenTag emits n's open tag. For <template>, x/net/html already
// exposes a parsed template's contents as ordinary children of the
// <template> node, so no special-cased content field is needed here.
func writeOpenTag(w *bufio.Writer, n *html.Node) error {
	if err := w.WriteByte('<'); err != nil {
		return err
	}
	if _, err := w.WriteString(n.Data); err != nil {
		return err
	}
	for _, a := range n.Attr {
		if err := w.WriteByte(' '); err != nil {
			return err
		}
		if _, err := w.WriteString(a.Key); err != nil {
			return err
		}
		if _, err := w.WriteString(`="`); err != nil {
			return err
		}
		if _, err := w.WriteString(escapeAttrValue(a.Val)); err != nil {
			return err
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
	}
	return w.WriteByte('>')
}

// writeCloseTag emits n's close tag. Void elements never receive one:
// HTML5 permits a trailing slash on the open tag of a void element,
// but to avoid ever emitting both an open and a close tag the
// serializer omits it and writes a plain "<tag ...>" at open time.
func writeCloseTag(w *bufio.Writer, n *html.Node) error {
	if isVoidElement(n.Data) {
		return nil
	}
	if _, err := w.WriteString("</"); err != nil {
		return err
	}
	if _, err := w.WriteString(n.Data); err != nil {
		return err
	}
	return w.WriteByte('>')
}

func writeRawText(w *bufio.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if _, err := w.WriteString(c.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

// escapeAttrValue escapes the characters that would otherwise let an
// attribute value terminate its quoted string or inject a new
// attribute: &, " always; < conservatively, since some legacy
// consumers mishandle a bare '<' inside a quoted attribute value.
func escapeAttrValue(s string) string {
	if !strings.ContainsAny(s, `&"<`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&#34;")
		case '<':
			b.WriteString("&lt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
