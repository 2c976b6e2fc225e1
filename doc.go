// Package htmlsanitizer provides a fast, policy-driven HTML sanitizer
// for Go applications.
//
// # Overview
//
// htmlsanitizer parses an HTML fragment (or io.Reader) using the
// standard golang.org/x/net/html tokenizer and tree builder, walks
// the resulting node tree, and produces a new HTML fragment that
// contains only the tags, attributes, URL schemes, and CSS
// declarations permitted by a [Policy]. Only fragments parsed in a
// <body> context are supported; full-document sanitization is out of
// scope.
//
// # Policies
//
// A [Policy] is built with a [Builder] and frozen by [Builder.Build].
// It controls:
//   - Which element tags are kept ([Builder.AllowElements]) and which
//     are dropped subtree-and-all ([Builder.CleanContentTags])
//   - Which attributes survive per tag or globally ([Builder.AllowAttrs])
//   - Literal value restrictions and unconditional injected values
//     ([Builder.AllowAttrValues], [Builder.SetAttrValue])
//   - Which URL schemes are allowed in URL attributes, and how
//     relative URLs are rewritten ([Builder.AllowURLSchemes],
//     [Builder.WithRelativeURLPolicy])
//   - Class-token filtering per tag ([Builder.AllowLists])
//   - style attribute filtering through a hard-coded CSS property
//     whitelist (always on for any tag whose "style" attribute is
//     allowed)
//   - Zero or more [Transformer] callbacks that can mutate kept nodes
//   - Whether plain-text URLs in text nodes become clickable links
//     ([Builder.WithLinkify])
//   - A maximum DOM nesting depth ([Builder.WithMaxDepth])
//
// Three built-in policies are provided:
//   - [DefaultPolicy] — a permissive but safe policy covering common
//     content tags. Good starting point for blog posts, articles, etc.
//   - [StrictPolicy] — a minimal policy allowing only basic inline
//     formatting with no attributes. Good for comment sections.
//   - [UGCPolicy] — DefaultPolicy's tags plus definition lists and
//     media embeds, class allow-lists on span/div/pre, and id-prefixing
//     for embedding arbitrary user content alongside a host page's own
//     markup.
//
// # Security
//
// htmlsanitizer defends against common XSS vectors including:
//   - Script injection via <script> and other disallowed tags
//   - Event handler attributes (onclick, onerror, etc.) — never
//     whitelisted by any built-in policy
//   - javascript: and data: URL schemes (including entity-encoded
//     forms of the scheme name)
//   - CSS expression/behavior injection via style attributes
//   - Script execution smuggled through foreign SVG/MathML content,
//     which is always unwrapped regardless of tag-name collisions
//     with the HTML vocabulary
//
// It does NOT provide a Content Security Policy header; pair with
// proper HTTP headers for defence in depth. It does not link-ify
// plain text by default, pretty-print its output, or validate
// semantic correctness such as alt-text presence.
//
// # Thread Safety
//
// A *Policy returned by Build or by any of the preset constructors is
// immutable and safe for concurrent use by any number of Sanitize/
// SanitizeReader calls. Sanitize and StripTags are safe for concurrent
// use. A *Builder is not safe for concurrent use, and should not be
// reused after a successful call to Build.
//
// # Example
//
//	p := htmlsanitizer.DefaultPolicy()
//	clean, err := htmlsanitizer.Sanitize(userInput, p)
package htmlsanitizer
