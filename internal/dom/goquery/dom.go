// Package goquerydom adapts goquery selections to the extractor's DOM interface.
package goquerydom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

// Parser builds goquery documents from raw HTML.
type Parser struct{}

// New returns a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse parses raw HTML. The HTML5 algorithm inserts implicit tbody elements,
// so every table contributes a table body.
func (Parser) Parse(raw string) (etl.Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", etl.ErrExtraction, err)
	}
	return Wrap(doc.Selection), nil
}

// Node wraps a single-element goquery selection.
type Node struct {
	sel *goquery.Selection
}

// Wrap adapts a selection. Only the first element of sel is considered.
func Wrap(sel *goquery.Selection) Node {
	return Node{sel: sel.First()}
}

// Find returns descendant elements matching tag, in document order.
func (n Node) Find(tag string) []etl.Node {
	matches := n.sel.Find(tag)
	out := make([]etl.Node, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Node{sel: s})
	})
	return out
}

// Attr returns the named attribute of the element.
func (n Node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// LeadingText returns the first child's text: the raw data of a text node, or
// the full text of an element child.
func (n Node) LeadingText() string {
	if len(n.sel.Nodes) == 0 {
		return ""
	}
	first := n.sel.Nodes[0].FirstChild
	for first != nil && first.Type == html.CommentNode {
		first = first.NextSibling
	}
	if first == nil {
		return ""
	}
	if first.Type == html.TextNode {
		return first.Data
	}
	return goquery.NewDocumentFromNode(first).Text()
}
