// Package page turns one archived Quora page into a small standalone HTML
// document holding the question, the answer or post, and its date line.
package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/quoracook/internal/quoradate"
	"github.com/hyperifyio/quoracook/internal/rewrite"
)

var (
	// ErrNoContent means the page has neither an answer nor a post body.
	ErrNoContent = errors.New("no answer or post found on page")
	// ErrNoQuestion means the page has no question header or board item.
	ErrNoQuestion = errors.New("no question found on page")
)

// Region class tokens, checked in this order for every div.
const (
	classAnswer           = "ExpandedAnswer"
	classPost             = "ExpandedPostContent"
	classQuestionHeader   = "ans_page_question_header"
	classBoardItem        = "BoardItem"
	classCredibilityFacts = "CredibilityFacts"
	classPostFooter       = "PostFooter"
)

var (
	answeredRe = regexp.MustCompile(`^Answered (.+)$`)
	postedRe   = regexp.MustCompile(`^Posted (.+)$`)
)

// Regions are the parts of a source page that end up in the output. Nodes
// belong to the source document.
type Regions struct {
	Title    *html.Node
	Answer   *html.Node
	Post     *html.Node
	Question *html.Node
	Footer   *html.Node
}

// Content returns the post body when present, else the answer body.
func (r Regions) Content() *html.Node {
	if r.Post != nil {
		return r.Post
	}
	return r.Answer
}

// Assembler converts pages. Origin is the instant relative dates resolve
// against; it is fixed for a whole run.
type Assembler struct {
	Rewriter *rewrite.Rewriter
	Origin   time.Time
}

// Convert reads a raw page from r and writes the converted page to w.
func (a *Assembler) Convert(ctx context.Context, r io.Reader, w io.Writer) error {
	out, err := a.Assemble(ctx, r)
	if err != nil {
		return err
	}
	if err := html.Render(w, out); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Assemble parses a raw page and builds the converted document.
func (a *Assembler) Assemble(ctx context.Context, r io.Reader) (*html.Node, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	decoded, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	regions := Locate(doc, a.Origin)
	if regions.Title != nil {
		log.Debug().Str("title", doc.Find("title").First().Text()).Msg("title")
	} else {
		log.Debug().Msg("title could not be determined")
	}
	if regions.Content() == nil {
		return nil, ErrNoContent
	}
	if regions.Question == nil {
		return nil, ErrNoQuestion
	}

	rw := a.Rewriter
	if rw == nil {
		rw = rewrite.New(rewrite.Options{})
	}
	sh := newShell(regions.Title, regions.Footer)
	rw.Rewrite(ctx, regions.Question, sh.question)
	rw.Rewrite(ctx, regions.Content(), sh.content)
	return sh.doc, nil
}

// Locate finds the title and the region divs of a page. Each div is put in
// at most one region; when several divs qualify for the same region the last
// one wins. Dates in footer links are rewritten in place to absolute dates.
func Locate(doc *goquery.Document, origin time.Time) Regions {
	var regions Regions
	if t := doc.Find("title").First(); t.Length() > 0 {
		regions.Title = t.Nodes[0]
	}
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		switch {
		case s.HasClass(classAnswer):
			regions.Answer = n
		case s.HasClass(classPost):
			regions.Post = n
		case s.HasClass(classQuestionHeader), s.HasClass(classBoardItem):
			regions.Question = n
		case s.HasClass(classCredibilityFacts):
			regions.Footer = n
			resolveFooterDate(s, answeredRe, "Answered", origin)
		case s.HasClass(classPostFooter):
			regions.Footer = n
			resolveFooterDate(s, postedRe, "Posted", origin)
		}
	})
	return regions
}

// resolveFooterDate rewrites the first footer link reading "<verb> <date>"
// to carry an absolute date. Unparseable dates are left alone.
func resolveFooterDate(footer *goquery.Selection, re *regexp.Regexp, verb string, origin time.Time) {
	footer.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Nodes[0].FirstChild
		if text == nil || text.Type != html.TextNode {
			return true
		}
		m := re.FindStringSubmatch(normalizeSpace(text.Data))
		if m == nil {
			return true
		}
		date, err := quoradate.Resolve(origin, m[1])
		if err != nil {
			log.Warn().Err(err).Str("text", text.Data).Msg("failed to resolve date")
			return false
		}
		text.Data = verb + " " + date
		return false
	})
}

// decode returns a UTF-8 reader over a raw page. Valid UTF-8 is taken as is;
// anything else goes through the charset declared in the page.
func decode(raw []byte) (io.Reader, error) {
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}
	return charset.NewReader(bytes.NewReader(raw), "text/html")
}

// normalizeSpace folds compatibility characters such as no-break spaces
// into their plain forms and trims the result.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
