package htmlsanitizer

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/cleanmark/htmlsanitizer/cssfilter"
	"github.com/cleanmark/htmlsanitizer/urlpolicy"
)

// filterAttrs applies the attribute filter of §4.3 to every attribute
// in attrs, in input order, and returns the surviving attributes with
// any set_tag_attribute_values injections for tag applied: an injected
// attribute the element already carries is overwritten in place, the
// others are appended in declaration order.
func (p *Policy) filterAttrs(tag string, attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)

		if classes, ok := p.allowedClasses[tag]; ok && key == "class" {
			filtered, keep := filterClassTokens(a.Val, classes)
			if keep && p.attributeFilter != nil {
				filtered, keep = p.attributeFilter(tag, key, filtered)
			}
			if keep {
				out = append(out, html.Attribute{Key: key, Val: filtered})
			}
			continue
		}

		if !p.attrAllowed(tag, key) {
			continue
		}

		val := a.Val

		if urlpolicy.IsURLAttribute(key) {
			rewritten, ok := urlpolicy.Classify(key, val, p.urlSchemes, p.urlRelative)
			if !ok {
				continue
			}
			val = rewritten
		}

		if key == "style" {
			classify := func(raw string) (string, bool) {
				return urlpolicy.Classify("style", raw, p.urlSchemes, p.urlRelative)
			}
			val = cssfilter.Filter(val, classify)
			if val == "" {
				continue
			}
		}

		if values, ok := p.tagAttributeValues[tag][key]; ok {
			if !values[val] {
				continue
			}
		}

		if p.attributeFilter != nil {
			replaced, keep := p.attributeFilter(tag, key, val)
			if !keep {
				continue
			}
			val = replaced
		}

		if key == "id" && p.idPrefix != "" && val != "" {
			val = p.idPrefix + val
		}

		out = append(out, html.Attribute{Key: key, Val: val})
	}

	for _, av := range p.setTagAttributeValues[tag] {
		out = setAttr(out, av.attr, av.val)
	}

	return out
}

// attrAllowed reports whether attr is permitted on tag by
// tag_attributes, generic_attributes, or generic_attribute_prefixes.
func (p *Policy) attrAllowed(tag, attr string) bool {
	if p.tagAttributes[tag][attr] {
		return true
	}
	if p.genericAttributes[attr] {
		return true
	}
	for _, prefix := range p.genericAttrPrefixes {
		if strings.HasPrefix(attr, prefix) {
			return true
		}
	}
	return false
}

// filterClassTokens splits a class attribute value on ASCII
// whitespace, keeps tokens present in allowed, and rejoins survivors
// with a single space. It reports false if no token survives, in
// which case the caller should drop the attribute entirely.
func filterClassTokens(val string, allowed map[string]bool) (string, bool) {
	fields := strings.FieldsFunc(val, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
	})
	kept := fields[:0]
	for _, f := range fields {
		if allowed[f] {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

// setAttr overwrites attr's value if present, else appends it.
func setAttr(attrs []html.Attribute, attr, val string) []html.Attribute {
	for i, a := range attrs {
		if a.Key == attr {
			attrs[i].Val = val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: attr, Val: val})
}
