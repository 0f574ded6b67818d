package rewrite

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/quoracook/internal/images"
)

func parseBody(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body>" + markup + "</body></html>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bodies := descendants(doc, atom.Body)
	if len(bodies) != 1 {
		t.Fatalf("expected one body, got %d", len(bodies))
	}
	return bodies[0]
}

func renderChildren(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	return buf.String()
}

func rewriteMarkup(t *testing.T, r *Rewriter, markup string) (string, *html.Node) {
	t.Helper()
	src := parseBody(t, markup)
	dest := newElement(atom.Div)
	r.Rewrite(context.Background(), src, dest)
	return renderChildren(t, dest), dest
}

type stubLocalizer struct {
	calls []string
	res   images.Result
	err   error
}

func (s *stubLocalizer) Localize(_ context.Context, src string) (images.Result, error) {
	s.calls = append(s.calls, src)
	return s.res, s.err
}

// Text and pass-through tags come out structurally identical.
func TestRewrite_PassThroughIsomorphic(t *testing.T) {
	markup := `<p>Hello <b>bold</b>, <i>it</i> and <u>under</u></p><h1>T</h1><h2>S</h2>` +
		`<ol><li>one</li><li>two<wbr>x</li></ol><ul><li>a</li></ul><blockquote><p>q</p></blockquote>line<br>next<hr>`
	got, _ := rewriteMarkup(t, New(Options{}), markup)
	want := renderChildren(t, parseBody(t, markup))
	if got != want {
		t.Fatalf("not isomorphic:\n got: %s\nwant: %s", got, want)
	}
}

func TestRewrite_PassThroughDropsAttributes(t *testing.T) {
	got, _ := rewriteMarkup(t, New(Options{}), `<p class="qtext_para" style="x">para</p>`)
	if got != "<p>para</p>" {
		t.Fatalf("got %s", got)
	}
}

func TestRewrite_UnwrapsSpansAndDivs(t *testing.T) {
	got, _ := rewriteMarkup(t, New(Options{}), `<div class="ExpandedAnswer"><span class="rendered_qtext">a<span>b</span></span></div>c`)
	if got != "abc" {
		t.Fatalf("got %s", got)
	}
}

func TestRewrite_TitlePromotedToH1(t *testing.T) {
	r := New(Options{})
	got, _ := rewriteMarkup(t, r, `<span class="question_text"><span class="rendered_qtext">Why is the sky blue?</span></span>`)
	if got != "<h1>Why is the sky blue?</h1>" {
		t.Fatalf("got %s", got)
	}
	got, _ = rewriteMarkup(t, r, `<div class="BoardItem"><div class="board_item_title">Post title</div></div>`)
	if got != "<h1>Post title</h1>" {
		t.Fatalf("got %s", got)
	}
	// A class that merely contains the token is not a title.
	got, _ = rewriteMarkup(t, r, `<span class="question_text_edit">plain</span>`)
	if got != "plain" {
		t.Fatalf("got %s", got)
	}
}

func TestRewrite_Embed(t *testing.T) {
	got, _ := rewriteMarkup(t, New(Options{}), `<div class="video" data-embed="&lt;iframe src=&quot;//www.youtube.com/embed/abc&quot;&gt;&lt;/iframe&gt;">thumb</div>`)
	want := `<iframe src="http://www.youtube.com/embed/abc" width="525" height="295"></iframe>`
	if got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestRewrite_MalformedEmbedCopiedVerbatim(t *testing.T) {
	markup := `<div data-embed="&lt;p&gt;nope&lt;/p&gt;"><span>thumb</span></div>`
	got, _ := rewriteMarkup(t, New(Options{}), markup)
	if want := renderChildren(t, parseBody(t, markup)); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestRewrite_InlineCode(t *testing.T) {
	got, dest := rewriteMarkup(t, New(Options{}), `use <div class="inline_codeblock"><pre><span class="n">x=1</span></pre></div> here`)
	if got != "use <code>x=1</code> here" {
		t.Fatalf("got %s", got)
	}
	code := descendants(dest, atom.Code)
	if len(code) != 1 || len(descendants(code[0], atom.Span)) != 0 {
		t.Fatalf("expected a single code element without spans")
	}
}

func TestRewrite_InlineCodeMismatchCopiedVerbatim(t *testing.T) {
	markup := `<div class="inline_codeblock"><code>y</code></div>`
	got, _ := rewriteMarkup(t, New(Options{}), markup)
	if want := renderChildren(t, parseBody(t, markup)); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestRewrite_SkipsFooterAndHidden(t *testing.T) {
	got, _ := rewriteMarkup(t, New(Options{}), `<div class="ContentFooter AnswerFooter">Written 3h ago</div><span class="hidden">secret</span>kept`)
	if got != "kept" {
		t.Fatalf("got %s", got)
	}
}

func TestRewrite_Links(t *testing.T) {
	r := New(Options{})
	cases := map[string]string{
		`<a class="user" href="/Jane-Doe" target="_blank">Jane</a>`:  `<a href="http://quora.com/Jane-Doe">Jane</a>`,
		`<a href="https://example.com/x">ext</a>`:                     `<a href="https://example.com/x">ext</a>`,
		`<a href="//cdn.example.com/y">proto</a>`:                     `<a href="//cdn.example.com/y">proto</a>`,
		`<a name="anchor">no href</a>`:                                `<a>no href</a>`,
		`<a href="/topic"><span class="x"><b>bold</b></span></a>`:    `<a href="http://quora.com/topic"><b>bold</b></a>`,
	}
	for in, want := range cases {
		got, _ := rewriteMarkup(t, r, in)
		if got != want {
			t.Fatalf("rewrite(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestRewrite_CustomSiteOrigin(t *testing.T) {
	got, _ := rewriteMarkup(t, New(Options{SiteOrigin: "https://www.quora.com/"}), `<a href="/Jane-Doe">J</a>`)
	if got != `<a href="https://www.quora.com/Jane-Doe">J</a>` {
		t.Fatalf("got %s", got)
	}
}

func TestRewrite_ImageWithoutLocalizer(t *testing.T) {
	got, _ := rewriteMarkup(t, New(Options{}), `<img class="math" master_src="https://q.net/big" src="https://q.net/small" alt="\sqrt{2}" width="10">`)
	want := `<img src="https://q.net/big" alt="\sqrt{2}"/>`
	if got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
	got, _ = rewriteMarkup(t, New(Options{}), `<img src="https://q.net/only">`)
	if got != `<img src="https://q.net/only" alt=""/>` {
		t.Fatalf("got %s", got)
	}
}

func TestRewrite_ImageLocalized(t *testing.T) {
	loc := &stubLocalizer{res: images.Result{Filename: "main-qimg-1.png", Outcome: images.Saved}}
	got, _ := rewriteMarkup(t, New(Options{Images: loc}), `<img master_src="https://q.net/main-qimg-1" src="https://q.net/small">`)
	if got != `<img src="main-qimg-1.png" alt=""/>` {
		t.Fatalf("got %s", got)
	}
	if len(loc.calls) != 1 || loc.calls[0] != "https://q.net/main-qimg-1" {
		t.Fatalf("unexpected localizer calls: %v", loc.calls)
	}
}

func TestRewrite_ImageFallbacksKeepRemoteURL(t *testing.T) {
	for _, loc := range []*stubLocalizer{
		{res: images.Result{Outcome: images.Skipped}},
		{err: errors.New("network down")},
		{err: images.ErrNoFilename},
	} {
		got, _ := rewriteMarkup(t, New(Options{Images: loc}), `<img src="https://q.net/pic">`)
		if got != `<img src="https://q.net/pic" alt=""/>` {
			t.Fatalf("got %s", got)
		}
	}
}

func TestRewrite_CodeBlock(t *testing.T) {
	line := `<div class="line"><span class="k">foo</span><span class="p">(</span><span class="p">)</span></div>`
	markup := `<table class="codeblocktable"><tbody><tr><td class="linenum">1</td><td><div class="codeblock"><pre>` +
		strings.Repeat(line, 3) + `</pre></div></td></tr></tbody></table>`
	_, dest := rewriteMarkup(t, New(Options{}), markup)
	pre := dest.FirstChild
	if !isElement(pre, atom.Pre) || pre.NextSibling != nil {
		t.Fatalf("expected a single pre element")
	}
	code := pre.FirstChild
	if !isElement(code, atom.Code) || code.FirstChild == nil || code.FirstChild.Type != html.TextNode {
		t.Fatalf("expected pre > code > text")
	}
	if got := code.FirstChild.Data; got != "foo()\nfoo()\nfoo()" {
		t.Fatalf("code text = %q", got)
	}
}

func TestRewrite_CodeBlockWithoutLinesCopiedVerbatim(t *testing.T) {
	markup := `<table class="codeblocktable"><tbody><tr><td>bare</td></tr></tbody></table>`
	got, _ := rewriteMarkup(t, New(Options{}), markup)
	if want := renderChildren(t, parseBody(t, markup)); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestRewrite_UnknownCopiedVerbatim(t *testing.T) {
	markup := `<table><tbody><tr><td><span>cell</span></td></tr></tbody></table><!-- note --><sup>2</sup>`
	got, _ := rewriteMarkup(t, New(Options{}), markup)
	if want := renderChildren(t, parseBody(t, markup)); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestRewrite_SourceUntouched(t *testing.T) {
	markup := `<div class="question_text"><a href="/x">Q</a></div><p>text <img src="https://q.net/a"></p>` +
		`<div class="inline_codeblock"><pre><span>z</span></pre></div>`
	src := parseBody(t, markup)
	before := renderChildren(t, src)
	dest := newElement(atom.Div)
	New(Options{}).Rewrite(context.Background(), src, dest)
	if after := renderChildren(t, src); after != before {
		t.Fatalf("source modified:\nbefore %s\nafter  %s", before, after)
	}
	for _, n := range descendants(dest, atom.A) {
		if n.Parent == nil {
			t.Fatalf("detached node in destination")
		}
	}
}

func TestClassify_Priority(t *testing.T) {
	body := parseBody(t, `<p class="hidden">x</p><span class="hidden question_text">y</span><img class="hidden" src="a">`)
	var kinds []kind
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		kinds = append(kinds, classify(c))
	}
	want := []kind{kindPassThrough, kindTitle, kindSkip}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}
