// Package rewrite converts Quora answer markup into plain, portable HTML.
//
// The source tree is never modified: every node placed in the destination is
// either freshly created or a clone. Each source node is classified into one
// kind up front and handled by that kind's handler; handlers that depend on
// a particular nested structure report failure instead of panicking, and the
// caller then copies the original node verbatim.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/quoracook/internal/embed"
	"github.com/hyperifyio/quoracook/internal/images"
)

// DefaultSiteOrigin prefixes root-relative links.
const DefaultSiteOrigin = "http://quora.com"

// Class tokens and attributes that mark Quora-specific structures.
const (
	classQuestionText   = "question_text"
	classBoardItemTitle = "board_item_title"
	classInlineCode     = "inline_codeblock"
	classContentFooter  = "ContentFooter"
	classHidden         = "hidden"
	classCodeBlockTable = "codeblocktable"
	attrEmbed           = "data-embed"
	attrMasterSrc       = "master_src"
)

var errStructure = errors.New("unexpected structure")

// Localizer stores a local copy of an image. *images.Localizer satisfies it.
type Localizer interface {
	Localize(ctx context.Context, src string) (images.Result, error)
}

// Options configure a Rewriter.
type Options struct {
	// SiteOrigin is prepended to root-relative hrefs. Defaults to
	// DefaultSiteOrigin.
	SiteOrigin string
	// Images localizes <img> sources. Nil keeps every remote URL.
	Images Localizer
}

// Rewriter holds the per-run configuration of the conversion. It carries no
// per-document state and may be reused across files.
type Rewriter struct {
	siteOrigin string
	images     Localizer
}

// New returns a Rewriter for opts.
func New(opts Options) *Rewriter {
	origin := strings.TrimRight(opts.SiteOrigin, "/")
	if origin == "" {
		origin = DefaultSiteOrigin
	}
	return &Rewriter{siteOrigin: origin, images: opts.Images}
}

type kind int

const (
	kindText kind = iota
	kindVoid
	kindPassThrough
	kindTitle
	kindEmbed
	kindInlineCode
	kindSkip
	kindUnwrap
	kindLink
	kindImage
	kindCodeBlock
	kindUnknown
	kindOther
)

var passThrough = map[atom.Atom]bool{
	atom.B:          true,
	atom.I:          true,
	atom.U:          true,
	atom.H1:         true,
	atom.H2:         true,
	atom.Ol:         true,
	atom.Ul:         true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Wbr:        true,
	atom.P:          true,
}

// classify picks the handler for n. The order of the checks is significant:
// the first match wins.
func classify(n *html.Node) kind {
	switch n.Type {
	case html.TextNode:
		return kindText
	case html.ElementNode:
	default:
		return kindOther
	}
	switch {
	case n.DataAtom == atom.Br || n.DataAtom == atom.Hr:
		return kindVoid
	case passThrough[n.DataAtom]:
		return kindPassThrough
	case HasClass(n, classQuestionText) || HasClass(n, classBoardItemTitle):
		return kindTitle
	case getAttr(n, attrEmbed) != "":
		return kindEmbed
	case HasClass(n, classInlineCode):
		return kindInlineCode
	case HasClass(n, classContentFooter) || HasClass(n, classHidden):
		return kindSkip
	case n.DataAtom == atom.Span || n.DataAtom == atom.Div:
		return kindUnwrap
	case n.DataAtom == atom.A:
		return kindLink
	case n.DataAtom == atom.Img:
		return kindImage
	case HasClass(n, classCodeBlockTable):
		return kindCodeBlock
	}
	return kindUnknown
}

// Rewrite appends the converted children of src to dest. Only dest and nodes
// created here are modified.
func (r *Rewriter) Rewrite(ctx context.Context, src, dest *html.Node) {
	for child := src.FirstChild; child != nil; child = child.NextSibling {
		r.rewriteNode(ctx, child, dest)
	}
}

func (r *Rewriter) rewriteNode(ctx context.Context, n, dest *html.Node) {
	switch classify(n) {
	case kindText, kindVoid:
		dest.AppendChild(ShallowClone(n))
	case kindPassThrough:
		out := &html.Node{Type: html.ElementNode, DataAtom: n.DataAtom, Data: n.Data, Namespace: n.Namespace}
		r.Rewrite(ctx, n, out)
		dest.AppendChild(out)
	case kindTitle:
		// Titles are promoted to h1 whatever element carried them.
		h1 := newElement(atom.H1)
		r.Rewrite(ctx, n, h1)
		dest.AppendChild(h1)
	case kindEmbed:
		iframe, err := embed.Resolve(getAttr(n, attrEmbed))
		if err != nil {
			log.Warn().Err(err).Msg("failed to parse video embed code")
			dest.AppendChild(DeepClone(n))
			return
		}
		dest.AppendChild(iframe)
	case kindInlineCode:
		code, err := inlineCode(n)
		if err != nil {
			log.Warn().Err(err).Msg("failed to parse inline codeblock")
			dest.AppendChild(DeepClone(n))
			return
		}
		dest.AppendChild(code)
	case kindSkip:
		log.Debug().Str("tag", n.Data).Str("class", getAttr(n, "class")).Msg("skipping node")
	case kindUnwrap:
		r.Rewrite(ctx, n, dest)
	case kindLink:
		a := newElement(atom.A)
		for _, attr := range n.Attr {
			if attr.Namespace == "" && attr.Key == "href" {
				setAttr(a, "href", r.absolute(attr.Val))
				break
			}
		}
		dest.AppendChild(a)
		r.Rewrite(ctx, n, a)
	case kindImage:
		dest.AppendChild(r.image(ctx, n))
	case kindCodeBlock:
		pre, err := codeBlock(n)
		if err != nil {
			log.Warn().Err(err).Msg("failed to parse code block")
			dest.AppendChild(DeepClone(n))
			return
		}
		dest.AppendChild(pre)
	case kindUnknown:
		log.Warn().Str("tag", n.Data).Msg("unrecognized node")
		dest.AppendChild(DeepClone(n))
	case kindOther:
		dest.AppendChild(DeepClone(n))
	}
}

// absolute turns a root-relative href into an absolute one. Protocol-relative
// and absolute addresses are returned unchanged.
func (r *Rewriter) absolute(href string) string {
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return r.siteOrigin + href
	}
	return href
}

func (r *Rewriter) image(ctx context.Context, n *html.Node) *html.Node {
	src := getAttr(n, attrMasterSrc)
	if src == "" {
		src = getAttr(n, "src")
	}
	img := newElement(atom.Img)
	setAttr(img, "src", src)
	setAttr(img, "alt", getAttr(n, "alt"))
	if r.images == nil {
		return img
	}
	res, err := r.images.Localize(ctx, src)
	switch {
	case errors.Is(err, images.ErrNoFilename):
		log.Warn().Str("url", src).Msg("failed to determine image name from URL")
	case err != nil:
		log.Warn().Err(err).Str("url", src).Msg("failed to save image")
	case res.Outcome != images.Skipped:
		setAttr(img, "src", res.Filename)
	}
	return img
}

// inlineCode expects container > pre > span and returns a <code> holding
// only the span's text, dropping any highlighting markup.
func inlineCode(n *html.Node) (*html.Node, error) {
	pre := n.FirstChild
	if !isElement(pre, atom.Pre) {
		return nil, fmt.Errorf("%w: inline code without pre", errStructure)
	}
	span := pre.FirstChild
	if !isElement(span, atom.Span) {
		return nil, fmt.Errorf("%w: inline code pre without span", errStructure)
	}
	code := newElement(atom.Code)
	code.AppendChild(newText(directText(span)))
	return code, nil
}

// codeBlock rebuilds a highlighted code table as pre > code. Every innermost
// div is one source line; the line's text is the concatenation of the text of
// all spans inside it.
func codeBlock(n *html.Node) (*html.Node, error) {
	var lines []string
	for _, div := range descendants(n, atom.Div) {
		if len(descendants(div, atom.Div)) > 0 {
			continue
		}
		var line strings.Builder
		for _, span := range descendants(div, atom.Span) {
			line.WriteString(directText(span))
		}
		lines = append(lines, line.String())
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: code block without lines", errStructure)
	}
	pre := newElement(atom.Pre)
	code := newElement(atom.Code)
	code.AppendChild(newText(strings.Join(lines, "\n")))
	pre.AppendChild(code)
	return pre, nil
}
