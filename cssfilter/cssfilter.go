// Package cssfilter sanitizes the value of a "style" attribute. It
// parses the declaration list with aymerick/douceur (itself built on
// gorilla/css's tokenizer), keeps only properties on a hard-coded
// safe whitelist, routes any url(...) value through a caller-supplied
// URL classifier, and reserializes the surviving declarations
// canonically.
package cssfilter

import (
	"strings"

	"github.com/aymerick/douceur/parser"
)

// URLClassifier decides whether a URL found inside a CSS url(...)
// value is acceptable, and what to replace it with. It matches the
// signature callers already have from urlpolicy.Classify("style",
// raw, ...).
type URLClassifier func(raw string) (string, bool)

// safeProperties is the whitelist of CSS properties that cannot load
// external resources or run script, aside from url(...) values which
// are independently routed through a URLClassifier.
var safeProperties = map[string]bool{
	"color":               true,
	"background-color":    true,
	"background-image":    true,
	"background-position": true,
	"background-repeat":   true,
	"background":          true,
	"border":              true,
	"border-color":        true,
	"border-radius":       true,
	"border-style":        true,
	"border-width":        true,
	"box-shadow":          true,
	"display":             true,
	"float":               true,
	"font":                true,
	"font-family":         true,
	"font-size":           true,
	"font-style":          true,
	"font-weight":         true,
	"height":              true,
	"width":               true,
	"letter-spacing":      true,
	"line-height":         true,
	"list-style":          true,
	"list-style-image":    true,
	"list-style-position": true,
	"list-style-type":     true,
	"margin":              true,
	"margin-top":          true,
	"margin-right":        true,
	"margin-bottom":       true,
	"margin-left":         true,
	"padding":             true,
	"padding-top":         true,
	"padding-right":       true,
	"padding-bottom":      true,
	"padding-left":        true,
	"text-align":          true,
	"text-decoration":     true,
	"text-indent":         true,
	"text-transform":      true,
	"vertical-align":      true,
	"white-space":         true,
	"word-spacing":        true,
	"word-wrap":           true,
	"overflow":            true,
	"opacity":             true,
}

// urlProperties is the subset of safeProperties whose value may
// legitimately contain a url(...) token.
var urlProperties = map[string]bool{
	"background":       true,
	"background-image": true,
	"list-style":       true,
	"list-style-image": true,
}

// Filter parses style as a CSS declaration list, drops every
// declaration whose property is not whitelisted, rewrites url(...)
// values through classify, and reserializes the survivors as
// "property: value;" pairs in source order. If the declaration list
// fails to parse, every declaration is dropped. An empty return value
// means every declaration was dropped.
func Filter(style string, classify URLClassifier) string {
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		if !safeProperties[prop] {
			continue
		}
		value := strings.TrimSpace(d.Value)
		if urlProperties[prop] && strings.Contains(strings.ToLower(value), "url(") {
			rewritten, ok := rewriteURLTokens(value, classify)
			if !ok {
				continue
			}
			value = rewritten
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(prop)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte(';')
	}
	return b.String()
}

// rewriteURLTokens scans value for url(...) occurrences and replaces
// each with classify's verdict. A single rejected URL drops the
// entire declaration, since a background shorthand with an unsafe
// layer is unsafe as a whole.
func rewriteURLTokens(value string, classify URLClassifier) (string, bool) {
	var out strings.Builder
	rest := value
	for {
		idx := strings.Index(strings.ToLower(rest), "url(")
		if idx < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:idx])
		rest = rest[idx+4:]
		end := strings.Index(rest, ")")
		if end < 0 {
			return "", false
		}
		raw := strings.Trim(strings.TrimSpace(rest[:end]), `"'`)
		rest = rest[end+1:]
		rewritten, ok := classify(raw)
		if !ok {
			return "", false
		}
		out.WriteString(`url("`)
		out.WriteString(rewritten)
		out.WriteString(`")`)
	}
	return out.String(), true
}
