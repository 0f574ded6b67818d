// Package embed turns the serialized iframe markup Quora stores in a
// data-embed attribute into a standalone iframe element.
package embed

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fixed player size; without explicit dimensions the video renders tiny.
const (
	Width  = "525"
	Height = "295"
)

// ErrMalformedEmbed is returned when the fragment is not a lone iframe.
var ErrMalformedEmbed = errors.New("malformed video embed")

// Resolve parses fragment as an isolated document and returns a fresh iframe
// element carrying the embedded iframe's attributes (no children). A
// protocol-relative src is made explicit and width/height are forced.
func Resolve(fragment string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEmbed, err)
	}
	iframe, err := loneIframe(doc)
	if err != nil {
		return nil, err
	}

	out := &html.Node{Type: html.ElementNode, Data: "iframe", DataAtom: atom.Iframe}
	for _, a := range iframe.Attr {
		if a.Namespace != "" {
			continue
		}
		switch a.Key {
		case "src":
			if strings.HasPrefix(a.Val, "//") {
				a.Val = "http:" + a.Val
			}
		case "width", "height":
			continue
		}
		out.Attr = append(out.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	out.Attr = append(out.Attr,
		html.Attribute{Key: "width", Val: Width},
		html.Attribute{Key: "height", Val: Height},
	)
	return out, nil
}

// loneIframe walks html > body and expects the body to open with an iframe
// and hold nothing else but whitespace.
func loneIframe(doc *html.Node) (*html.Node, error) {
	root := firstElement(doc)
	if root == nil || root.DataAtom != atom.Html {
		return nil, fmt.Errorf("%w: no document element", ErrMalformedEmbed)
	}
	var body *html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Body {
			body = c
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: no body", ErrMalformedEmbed)
	}
	first := body.FirstChild
	if first == nil || first.Type != html.ElementNode || first.DataAtom != atom.Iframe {
		return nil, fmt.Errorf("%w: body does not start with an iframe", ErrMalformedEmbed)
	}
	for c := first.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return nil, fmt.Errorf("%w: unexpected content after iframe", ErrMalformedEmbed)
	}
	return first, nil
}

func firstElement(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
