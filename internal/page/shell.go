package page

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/quoracook/internal/rewrite"
)

// Fleuron separates the question from the answer.
const Fleuron = "❦"

// Stylesheet is inlined into every converted page.
const Stylesheet = "blockquote { border-left: 2px solid #ddd; color: #666; margin: 0; padding-left: 16px; } " +
	"code, pre { background: #f4f4f4; } " +
	"h1 a { text-decoration:none; } " +
	"pre, h2 { margin: 0; } " +
	".CredibilityFacts { text-align: right; font-style: italic; } " +
	"ul { margin: 0 0 0 16px; padding: 8px 0; } " +
	"ol { margin: 0 0 0 28px; padding: 8px 0; } " +
	"li { margin: 0 0 8px; } "

// shell is the skeleton of an output page with the two containers the
// rewriter fills in.
type shell struct {
	doc      *html.Node
	question *html.Node
	content  *html.Node
}

// newShell builds
//
//	<!DOCTYPE html><html><head>title meta style</head>
//	<body><div/><p>❦</p><div/>footer</body></html>
//
// title and footer are cloned from the source page and may be nil.
func newShell(title, footer *html.Node) shell {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	if title != nil {
		head.AppendChild(rewrite.DeepClone(title))
	}
	meta := element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"})
	head.AppendChild(meta)
	style := element(atom.Style, html.Attribute{Key: "type", Val: "text/css"})
	style.AppendChild(&html.Node{Type: html.TextNode, Data: Stylesheet})
	head.AppendChild(style)
	root.AppendChild(head)

	body := element(atom.Body)
	question := element(atom.Div)
	content := element(atom.Div)
	sep := element(atom.P, html.Attribute{Key: "style", Val: "text-align: center;"})
	sep.AppendChild(&html.Node{Type: html.TextNode, Data: Fleuron})
	body.AppendChild(question)
	body.AppendChild(sep)
	body.AppendChild(content)
	if footer != nil {
		body.AppendChild(rewrite.DeepClone(footer))
	}
	root.AppendChild(body)
	doc.AppendChild(root)

	return shell{doc: doc, question: question, content: content}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
