package htmlsanitizer

import (
	"errors"
	"strings"

	"golang.org/x/net/html"

	"github.com/cleanmark/htmlsanitizer/urlpolicy"
)

// AttributeFilter is a global callback applied to every attribute
// that survives tag, class, URL, and literal-value filtering. It
// returns the value to keep and true, or ("", false) to drop the
// attribute.
type AttributeFilter func(tag, attr, val string) (string, bool)

// Policy is the immutable configuration aggregate produced by a
// Builder. A Policy is cheap to share and safe for concurrent use by
// multiple Sanitize/SanitizeReader calls; nothing about sanitizing a
// document mutates the Policy that drives it.
type Policy struct {
	tags                  map[string]bool
	cleanContentTags      map[string]bool
	tagAttributes         map[string]map[string]bool
	tagAttributeValues    map[string]map[string]map[string]bool
	setTagAttributeValues map[string][]attrValue
	genericAttributes     map[string]bool
	genericAttrPrefixes   []string
	urlSchemes            urlpolicy.Schemes
	urlRelative           urlpolicy.Relative
	linkRel               string
	allowedClasses        map[string]map[string]bool
	stripComments         bool
	idPrefix              string
	attributeFilter       AttributeFilter
	transformers          []Transformer
	linkify               bool
	maxDepth              int
}

// attrValue is one attr=value pair injected by SetAttrValue, held in
// declaration order so Build output stays deterministic regardless of
// Go's randomized map iteration.
type attrValue struct {
	attr string
	val  string
}

// Transformer receives a kept, attribute-filtered HTML node and may
// mutate it in place (e.g. adding or removing attributes). Returning
// nil removes the node from the output entirely, including its
// descendants.
type Transformer func(n *html.Node) *html.Node

// genericTag is the sentinel key used for rules that apply to every
// kept tag rather than one specific tag.
const genericTag = "*"

var (
	// ErrTagCleanConflict reports that a tag name appears in both the
	// kept-tags set and the clean-content-tags set.
	ErrTagCleanConflict = errors.New("htmlsanitizer: tag listed as both allowed and clean-content")
	// ErrClassPolicyConflict reports that a tag's class attribute is
	// governed by both a literal allow-list and the generic
	// tag_attributes rule.
	ErrClassPolicyConflict = errors.New("htmlsanitizer: class attribute configured as both filtered and literal")
)

// Builder accumulates policy configuration via a fluent, chainable
// API. Call Build to freeze the configuration into an immutable
// *Policy; a Builder itself is not safe to reuse after Build returns
// successfully, since ownership of its maps passes to the Policy.
type Builder struct {
	p   *Policy
	err error
}

// NewBuilder returns an empty Builder with nothing whitelisted. Use
// AllowElements, AllowAttrs, and the other setters to construct a
// policy from scratch. The presets DefaultPolicy/StrictPolicy/
// UGCPolicy return an already frozen *Policy; they do not return a
// Builder, so a preset cannot be narrowed or widened.
func NewBuilder() *Builder {
	return &Builder{p: &Policy{
		tags:                  map[string]bool{},
		cleanContentTags:      map[string]bool{},
		tagAttributes:         map[string]map[string]bool{},
		tagAttributeValues:    map[string]map[string]map[string]bool{},
		setTagAttributeValues: map[string][]attrValue{},
		genericAttributes:     map[string]bool{},
		allowedClasses:        map[string]map[string]bool{},
		urlSchemes:            urlpolicy.Schemes{},
		urlRelative:           urlpolicy.Deny(),
		maxDepth:              0,
	}}
}

// AllowElements appends tags to the whitelist without granting any
// attributes on them; combine with AllowAttrs to permit attributes.
func (b *Builder) AllowElements(tags ...string) *Builder {
	for _, t := range tags {
		b.p.tags[strings.ToLower(t)] = true
	}
	return b
}

// CleanContentTags marks tags whose entire subtree, including text
// descendants, is dropped rather than unwrapped. Typical callers
// list "script" and "style" here when those tags are not otherwise
// allowed, so their text content isn't promoted into the output.
func (b *Builder) CleanContentTags(tags ...string) *Builder {
	for _, t := range tags {
		b.p.cleanContentTags[strings.ToLower(t)] = true
	}
	return b
}

// attrPolicyBuilder is the intermediate value returned by AllowAttrs;
// it becomes a concrete rule once OnElements or Globally is called.
type attrPolicyBuilder struct {
	b         *Builder
	attrNames []string
}

// AllowAttrs begins a rule permitting the given attribute names. The
// rule has no effect until OnElements or Globally scopes it.
//
// Example:
//
//	b.AllowAttrs("title").Globally()
//	b.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
func (b *Builder) AllowAttrs(attrNames ...string) *attrPolicyBuilder {
	abp := &attrPolicyBuilder{b: b}
	for _, a := range attrNames {
		abp.attrNames = append(abp.attrNames, strings.ToLower(a))
	}
	return abp
}

// OnElements scopes the attribute rule to the given tags.
func (abp *attrPolicyBuilder) OnElements(tags ...string) *Builder {
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		if _, ok := abp.b.p.tagAttributes[tag]; !ok {
			abp.b.p.tagAttributes[tag] = map[string]bool{}
		}
		for _, attr := range abp.attrNames {
			abp.b.p.tagAttributes[tag][attr] = true
		}
	}
	return abp.b
}

// Globally scopes the attribute rule to every kept tag.
func (abp *attrPolicyBuilder) Globally() *Builder {
	for _, attr := range abp.attrNames {
		abp.b.p.genericAttributes[attr] = true
	}
	return abp.b
}

// AllowAttrPrefixes permits any attribute whose name starts with one
// of the given prefixes, on any kept tag. Typically used for
// data-* and aria-* attributes.
func (b *Builder) AllowAttrPrefixes(prefixes ...string) *Builder {
	b.p.genericAttrPrefixes = append(b.p.genericAttrPrefixes, prefixes...)
	return b
}

// AllowAttrValues restricts attr on tag to one of the given literal
// values; any other value drops the attribute.
func (b *Builder) AllowAttrValues(tag, attr string, values ...string) *Builder {
	tag, attr = strings.ToLower(tag), strings.ToLower(attr)
	if _, ok := b.p.tagAttributeValues[tag]; !ok {
		b.p.tagAttributeValues[tag] = map[string]map[string]bool{}
	}
	set := map[string]bool{}
	for _, v := range values {
		set[v] = true
	}
	b.p.tagAttributeValues[tag][attr] = set
	return b
}

// SetAttrValue unconditionally injects attr=value on every kept
// element of tag, after all other attribute rules have run. Injected
// attributes the element does not already carry appear at the end of
// its attribute list in the order their SetAttrValue calls were made;
// one it already carries keeps its position and gets the new value.
func (b *Builder) SetAttrValue(tag, attr, value string) *Builder {
	tag = strings.ToLower(tag)
	b.p.setTagAttributeValues[tag] = append(b.p.setTagAttributeValues[tag], attrValue{attr: attr, val: value})
	return b
}

// AllowLists switches tag's class attribute into filter mode: only
// the listed class tokens survive, tokens are rejoined with a single
// space, and an attribute that ends up empty is dropped. AllowLists
// and AllowAttrs("class").OnElements(tag) are mutually exclusive;
// configuring both is reported by Build as ErrClassPolicyConflict.
func (b *Builder) AllowLists(tag string, classes ...string) *Builder {
	tag = strings.ToLower(tag)
	if _, ok := b.p.allowedClasses[tag]; !ok {
		b.p.allowedClasses[tag] = map[string]bool{}
	}
	for _, c := range classes {
		b.p.allowedClasses[tag][c] = true
	}
	return b
}

// AllowURLSchemes appends to the set of absolute URL schemes
// permitted in URL attributes.
func (b *Builder) AllowURLSchemes(schemes ...string) *Builder {
	for _, s := range schemes {
		b.p.urlSchemes[strings.ToLower(s)] = true
	}
	return b
}

// WithRelativeURLPolicy sets how relative URLs (no scheme, including
// protocol-relative "//host/path" forms) are handled; see the
// urlpolicy package for the available modes.
func (b *Builder) WithRelativeURLPolicy(rel urlpolicy.Relative) *Builder {
	b.p.urlRelative = rel
	return b
}

// RequireNoFollowOnLinks is a convenience for the common case of
// forcing rel="nofollow" on every <a href>.
func (b *Builder) RequireNoFollowOnLinks() *Builder {
	return b.WithLinkRel("nofollow")
}

// WithLinkRel forces rel to the given value on every <a> element
// that has an href, overriding any inbound rel attribute. An empty
// string disables forced rel rewriting.
func (b *Builder) WithLinkRel(rel string) *Builder {
	b.p.linkRel = rel
	return b
}

// StripComments controls whether HTML comment nodes are removed
// (true, the posture DefaultPolicy and UGCPolicy take for untrusted
// content) or preserved verbatim (false). A NewBuilder starts with
// false.
func (b *Builder) StripComments(strip bool) *Builder {
	b.p.stripComments = strip
	return b
}

// WithIDPrefix prefixes every surviving non-empty id attribute value
// with prefix. Applied exactly once per element; callers must ensure
// input ids are not already prefixed if they call Sanitize on
// already-sanitized output.
func (b *Builder) WithIDPrefix(prefix string) *Builder {
	b.p.idPrefix = prefix
	return b
}

// WithAttributeFilter installs a callback invoked, in attribute
// order, after every other attribute rule has accepted an attribute.
// Its return value replaces the attribute's value, or drops the
// attribute if it returns false.
func (b *Builder) WithAttributeFilter(f AttributeFilter) *Builder {
	b.p.attributeFilter = f
	return b
}

// WithTransformer appends a node-scoped callback run on every kept,
// attribute-filtered element. Transformers run in registration order.
func (b *Builder) WithTransformer(t Transformer) *Builder {
	b.p.transformers = append(b.p.transformers, t)
	return b
}

// WithLinkify enables converting bare http/https URLs found in text
// nodes into <a> elements. Linkify runs as a pre-pass over text nodes
// before the sanitizing walk proper; it is an opt-in add-on, not part
// of the mandatory sanitizing core.
func (b *Builder) WithLinkify(enabled bool) *Builder {
	b.p.linkify = enabled
	return b
}

// WithMaxDepth bounds how deeply nested elements may be; nodes past
// depth are unwrapped (children promoted, wrapper dropped). Zero (the
// default) means unlimited.
func (b *Builder) WithMaxDepth(depth int) *Builder {
	b.p.maxDepth = depth
	return b
}

// Build validates the accumulated configuration and returns an
// immutable, shareable *Policy. It fails if a tag name was placed in
// both the kept-tags and clean-content-tags sets, or if a tag's class
// attribute was configured both as a literal allow-list and via the
// generic tag_attributes rule.
func (b *Builder) Build() (*Policy, error) {
	for tag := range b.p.tags {
		if b.p.cleanContentTags[tag] {
			return nil, ErrTagCleanConflict
		}
	}
	for tag := range b.p.allowedClasses {
		if attrs, ok := b.p.tagAttributes[tag]; ok && attrs["class"] {
			return nil, ErrClassPolicyConflict
		}
	}
	return b.p, nil
}
