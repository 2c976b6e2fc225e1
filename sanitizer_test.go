package htmlsanitizer_test

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/cleanmark/htmlsanitizer"
	"github.com/cleanmark/htmlsanitizer/urlpolicy"
)

func TestSanitize_ScriptStripped(t *testing.T) {
	input := `<p>Hello</p><script>alert('xss')</script>`
	got, err := htmlsanitizer.Sanitize(input, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "script") {
		t.Errorf("script tag found in output: %s", got)
	}
	if !strings.Contains(got, "Hello") {
		t.Errorf("expected Hello in output: %s", got)
	}
}

func TestSanitize_JavascriptHrefBlocked(t *testing.T) {
	input := `<a href="javascript:alert(1)">click</a>`
	got, err := htmlsanitizer.Sanitize(input, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "javascript") {
		t.Errorf("javascript href survived sanitization: %s", got)
	}
	if !strings.Contains(got, `rel="noopener noreferrer"`) {
		t.Errorf("rel should still be injected when href is dropped: %s", got)
	}
}

func TestSanitize_DataUriBlocked(t *testing.T) {
	input := `<img src="data:text/html,<script>alert(1)</script>">`
	got, err := htmlsanitizer.Sanitize(input, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "data:") {
		t.Errorf("data URI survived sanitization: %s", got)
	}
}

func TestSanitize_AllowedTagPreserved(t *testing.T) {
	input := `<p><b>bold</b> and <i>italic</i></p>`
	got, err := htmlsanitizer.Sanitize(input, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	for _, tag := range []string{"<p>", "<b>", "<i>"} {
		if !strings.Contains(got, tag) {
			t.Errorf("expected %s in output: %s", tag, got)
		}
	}
}

func TestSanitize_UnwrapDisallowed(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("p", "b").
		AllowURLSchemes("https").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	input := `<p>keep</p><custom><b>x</b></custom>`
	got, err := htmlsanitizer.Sanitize(input, p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "custom") {
		t.Errorf("custom tag should be unwrapped: %s", got)
	}
	if !strings.Contains(got, "<b>x</b>") {
		t.Errorf("b child should survive the unwrap: %s", got)
	}
}

func TestSanitize_CleanContentTagsDropsSubtree(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("p").
		AllowURLSchemes("https").
		CleanContentTags("script").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	input := `<p>keep</p><script>var x = "gone";</script>`
	got, err := htmlsanitizer.Sanitize(input, p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "gone") {
		t.Errorf("clean_content_tags subtree should be dropped entirely: %s", got)
	}
}

func TestSanitize_RelativeURLAllowed(t *testing.T) {
	input := `<a href="/about">About</a>`
	got, err := htmlsanitizer.Sanitize(input, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `href="/about"`) {
		t.Errorf("relative href should be preserved: %s", got)
	}
}

func TestSanitize_RelativeURLDenied(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("a").
		AllowAttrs("href").OnElements("a").
		AllowURLSchemes("https").
		WithRelativeURLPolicy(urlpolicy.Deny()).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	got, err := htmlsanitizer.Sanitize(`<a href="/about">x</a>`, p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "href") {
		t.Errorf("relative href should be dropped under Deny: %s", got)
	}
}

func TestSanitize_MaxDepth(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("div", "b").
		AllowURLSchemes("https").
		WithMaxDepth(2).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	input := `<div><div><div><b>deep</b></div></div></div>`
	got, err := htmlsanitizer.Sanitize(input, p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<b>") {
		t.Errorf("node beyond MaxDepth should be unwrapped/stripped: %s", got)
	}
	if !strings.Contains(got, "deep") {
		t.Errorf("text content should still survive: %s", got)
	}
}

func TestSanitize_Transformer(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("a").
		AllowAttrs("href").OnElements("a").
		AllowURLSchemes("https").
		WithTransformer(func(n *html.Node) *html.Node {
			if n.Type == html.ElementNode && n.Data == "a" {
				htmlsanitizer.SetAttr(n, "target", "_blank")
			}
			return n
		}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	got, err := htmlsanitizer.Sanitize(`<a href="https://example.com">link</a>`, p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("transformer should add target=_blank: %s", got)
	}
}

func TestSanitize_TransformerNilRemovesNode(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("p", "b").
		AllowURLSchemes("https").
		WithTransformer(func(n *html.Node) *html.Node {
			if n.Type == html.ElementNode && n.Data == "b" {
				return nil
			}
			return n
		}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	got, err := htmlsanitizer.Sanitize(`<p><b>remove me</b> keep</p>`, p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "remove me") {
		t.Errorf("transformer returned nil so node should be gone: %s", got)
	}
	if !strings.Contains(got, "keep") {
		t.Errorf("sibling text should survive: %s", got)
	}
}

func TestSanitize_Linkify(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("a").
		AllowAttrs("href").OnElements("a").
		AllowURLSchemes("https").
		WithLinkify(true).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	got, err := htmlsanitizer.Sanitize(`Visit https://example.com for details`, p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `<a href="https://example.com"`) {
		t.Errorf("linkify should create anchor: %s", got)
	}
}

func TestStripTags(t *testing.T) {
	input := `<p>Hello <b>world</b></p>`
	got, err := htmlsanitizer.StripTags(input)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<") {
		t.Errorf("StripTags left HTML: %s", got)
	}
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "world") {
		t.Errorf("StripTags lost text: %s", got)
	}
}

func TestSanitizeReader(t *testing.T) {
	input := `<b>hello</b><script>bad</script>`
	r := strings.NewReader(input)
	got, err := htmlsanitizer.SanitizeReader(r, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "script") {
		t.Errorf("SanitizeReader should strip script: %s", got)
	}
}

func TestCleanText_EscapesEverything(t *testing.T) {
	got, err := htmlsanitizer.CleanText(`<b>bold</b> & "quoted"`)
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(got, "<>") {
		t.Errorf("CleanText should escape all markup: %s", got)
	}
}

func TestSetGetRemoveAttr(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "a"}
	htmlsanitizer.SetAttr(n, "href", "https://example.com")
	if v := htmlsanitizer.GetAttr(n, "href"); v != "https://example.com" {
		t.Errorf("GetAttr got %q want https://example.com", v)
	}
	htmlsanitizer.SetAttr(n, "href", "https://other.com")
	if v := htmlsanitizer.GetAttr(n, "href"); v != "https://other.com" {
		t.Errorf("SetAttr update got %q", v)
	}
	htmlsanitizer.RemoveAttr(n, "href")
	if v := htmlsanitizer.GetAttr(n, "href"); v != "" {
		t.Errorf("RemoveAttr should leave empty, got %q", v)
	}
}

func TestDefaultPolicy_NotNil(t *testing.T) {
	p := htmlsanitizer.DefaultPolicy()
	if p == nil {
		t.Fatal("DefaultPolicy returned nil")
	}
}

func TestStrictPolicy_StripsDivs(t *testing.T) {
	input := `<b>ok</b><div>gone</div>`
	got, err := htmlsanitizer.Sanitize(input, htmlsanitizer.StrictPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "div") {
		t.Errorf("StrictPolicy should unwrap div: %s", got)
	}
	if !strings.Contains(got, "<b>ok</b>") {
		t.Errorf("StrictPolicy should keep b: %s", got)
	}
}

func TestUGCPolicy_PrefixesID(t *testing.T) {
	p := htmlsanitizer.UGCPolicy()
	got, err := htmlsanitizer.Sanitize(`<p id="intro">hi</p>`, p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `id="user-content-intro"`) {
		t.Errorf("UGCPolicy should prefix ids: %s", got)
	}
}

func TestSanitize_BrVoidElement(t *testing.T) {
	got, err := htmlsanitizer.Sanitize(`<p>line<br>break</p>`, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "</br>") || strings.Contains(got, "<br/>") {
		t.Errorf("br must not carry a close tag: %s", got)
	}
	if !strings.Contains(got, "<br>") {
		t.Errorf("br should be preserved: %s", got)
	}
}

func TestSanitize_CommentStripped(t *testing.T) {
	got, err := htmlsanitizer.Sanitize(`<!-- c --><p>hi</p>`, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<!--") {
		t.Errorf("comment should be stripped by default: %s", got)
	}
}

func TestSanitize_SVGUnwrapped(t *testing.T) {
	got, err := htmlsanitizer.Sanitize(`<svg><a>evil</a></svg><p>ok</p>`, htmlsanitizer.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<svg") {
		t.Errorf("svg namespace elements should be unwrapped: %s", got)
	}
}

func TestSanitize_StyleAttributeFiltered(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("p").
		AllowAttrs("style").OnElements("p").
		AllowURLSchemes("https").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	got, err := htmlsanitizer.Sanitize(`<p style="color: red; behavior: url(evil.htc)">x</p>`, p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "behavior") {
		t.Errorf("unsafe CSS property should be dropped: %s", got)
	}
	if !strings.Contains(got, "color: red") {
		t.Errorf("safe CSS property should survive: %s", got)
	}
}

func TestSanitize_AllowLists_ClassFiltered(t *testing.T) {
	p, err := htmlsanitizer.NewBuilder().
		AllowElements("span").
		AllowURLSchemes("https").
		AllowLists("span", "keyword").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	got, err := htmlsanitizer.Sanitize(`<span class="keyword evil">x</span>`, p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "evil") {
		t.Errorf("disallowed class token should be dropped: %s", got)
	}
	if !strings.Contains(got, `class="keyword"`) {
		t.Errorf("allowed class token should survive: %s", got)
	}
}

func TestBuild_TagCleanConflict(t *testing.T) {
	_, err := htmlsanitizer.NewBuilder().
		AllowElements("script").
		CleanContentTags("script").
		Build()
	if err != htmlsanitizer.ErrTagCleanConflict {
		t.Fatalf("expected ErrTagCleanConflict, got %v", err)
	}
}

func TestBuild_ClassPolicyConflict(t *testing.T) {
	_, err := htmlsanitizer.NewBuilder().
		AllowElements("span").
		AllowAttrs("class").OnElements("span").
		AllowLists("span", "keyword").
		Build()
	if err != htmlsanitizer.ErrClassPolicyConflict {
		t.Fatalf("expected ErrClassPolicyConflict, got %v", err)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	input := `<p>hi <b>there</b></p><script>bad()</script><a href="javascript:x">y</a>`
	p := htmlsanitizer.DefaultPolicy()
	once, err := htmlsanitizer.Sanitize(input, p)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := htmlsanitizer.Sanitize(once, p)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("Sanitize should be idempotent:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestSanitize_DeepNestingResourceBound(t *testing.T) {
	const depth = 50000
	input := strings.Repeat("<div>", depth) + "deep" + strings.Repeat("</div>", depth)

	p, err := htmlsanitizer.NewBuilder().
		AllowElements("div").
		AllowURLSchemes("https").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	got, err := htmlsanitizer.Sanitize(input, p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "deep") {
		t.Errorf("text at the bottom of a %d-deep tree should survive", depth)
	}
	if strings.Count(got, "<div>") != depth {
		t.Errorf("expected %d opening div tags, got %d", depth, strings.Count(got, "<div>"))
	}
	if strings.Count(got, "</div>") != depth {
		t.Errorf("expected %d closing div tags, got %d", depth, strings.Count(got, "</div>"))
	}
}

func BenchmarkSanitize(b *testing.B) {
	input := strings.Repeat(`<p>Hello <b>world</b> <script>bad()</script> <a href="http://x.com">link</a></p>`, 100)
	p := htmlsanitizer.DefaultPolicy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = htmlsanitizer.Sanitize(input, p)
	}
}
