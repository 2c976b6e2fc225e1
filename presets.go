package htmlsanitizer

import "github.com/cleanmark/htmlsanitizer/urlpolicy"

// commonSchemes is the common URL scheme whitelist shared by
// DefaultPolicy and UGCPolicy: the schemes a "safe rich text" policy
// is expected to permit beyond the obvious http/https/mailto trio.
var commonSchemes = []string{
	"bitcoin", "ftp", "ftps", "geo", "http", "https", "im", "irc",
	"ircs", "magnet", "mailto", "mms", "news", "nntp", "openpgp4fpr",
	"sip", "sms", "smsto", "ssh", "tel", "url", "webcal", "wtai", "xmpp",
}

// DefaultPolicy returns a conservative "safe rich text" policy: common
// structural and inline tags, the common URL schemes, forced
// rel="noopener noreferrer" on links, comments stripped, and relative
// URLs passed through unchanged. Its configuration is fixed, so it
// returns no error: if Build ever fails here, that is a bug in this
// package, and DefaultPolicy panics.
func DefaultPolicy() *Policy {
	b := NewBuilder().
		AllowElements(
			"a", "b", "blockquote", "br", "code", "em",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"hr", "i", "img", "li", "ol", "p", "pre",
			"small", "span", "strong", "sub", "sup", "u", "ul",
			"table", "thead", "tbody", "tfoot", "tr", "th", "td",
			"caption", "colgroup", "col",
			"div", "section", "article", "header", "footer",
			"figure", "figcaption", "details", "summary",
			"abbr", "cite", "q", "kbd", "samp", "s", "del", "ins",
		).
		AllowAttrs("href", "title", "target", "rel").OnElements("a").
		AllowAttrs("src", "alt", "title", "width", "height", "loading").OnElements("img").
		AllowAttrs("colspan", "rowspan", "align", "valign").OnElements("td", "th").
		AllowAttrs("scope").OnElements("th").
		AllowAttrs("cite").OnElements("blockquote", "q").
		AllowAttrs("title").OnElements("abbr").
		AllowAttrs("id", "class", "lang", "dir").Globally().
		AllowURLSchemes(commonSchemes...).
		WithRelativeURLPolicy(urlpolicy.PassThrough()).
		WithLinkRel("noopener noreferrer").
		CleanContentTags("script", "style").
		StripComments(true)

	p, err := b.Build()
	if err != nil {
		panic("htmlsanitizer: DefaultPolicy: " + err.Error())
	}
	return p
}

// StrictPolicy returns a policy allowing only the most basic inline
// formatting tags with no attributes at all — suitable for comment
// sections and user-generated content where minimal markup is wanted.
func StrictPolicy() *Policy {
	b := NewBuilder().
		AllowElements("b", "i", "em", "strong", "br", "p", "ul", "ol", "li").
		AllowURLSchemes("https").
		CleanContentTags("script", "style")

	p, err := b.Build()
	if err != nil {
		panic("htmlsanitizer: StrictPolicy: " + err.Error())
	}
	return p
}

// UGCPolicy returns a richer, table- and media-friendly policy suited
// to user-generated content: DefaultPolicy's tags plus definition
// lists and media embeds, a filtered class allow-list on span/div/pre
// for common code-highlighting classes, and every surviving id
// prefixed with "user-content-" to keep anchors from colliding with
// the host page's own ids.
func UGCPolicy() *Policy {
	b := NewBuilder().
		AllowElements(
			"a", "b", "blockquote", "br", "code", "em",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"hr", "i", "img", "li", "ol", "p", "pre",
			"small", "span", "strong", "sub", "sup", "u", "ul",
			"table", "thead", "tbody", "tfoot", "tr", "th", "td",
			"caption", "colgroup", "col",
			"div", "section", "article", "header", "footer",
			"figure", "figcaption", "details", "summary",
			"abbr", "cite", "q", "kbd", "samp", "s", "del", "ins",
			"dl", "dt", "dd", "video", "audio", "source",
		).
		AllowAttrs("href", "title", "target", "rel").OnElements("a").
		AllowAttrs("src", "alt", "title", "width", "height", "loading").OnElements("img").
		AllowAttrs("src", "type").OnElements("source").
		AllowAttrs("controls", "poster", "width", "height").OnElements("video").
		AllowAttrs("controls").OnElements("audio").
		AllowAttrs("colspan", "rowspan", "align", "valign").OnElements("td", "th").
		AllowAttrs("scope").OnElements("th").
		AllowAttrs("cite").OnElements("blockquote", "q").
		AllowAttrs("title").OnElements("abbr").
		AllowAttrs("id", "lang", "dir").Globally().
		AllowLists("span", "highlight", "keyword", "string", "comment", "number", "function").
		AllowLists("div", "highlight", "note", "warning", "codehilite").
		AllowLists("pre", "highlight", "codehilite").
		AllowURLSchemes(commonSchemes...).
		WithRelativeURLPolicy(urlpolicy.PassThrough()).
		WithLinkRel("noopener noreferrer").
		WithIDPrefix("user-content-").
		CleanContentTags("script", "style").
		StripComments(true)

	p, err := b.Build()
	if err != nil {
		panic("htmlsanitizer: UGCPolicy: " + err.Error())
	}
	return p
}
