package etl

// fakeNode is a tiny in-memory DOM used to exercise the extractor without an
// HTML parser.
type fakeNode struct {
	tag      string
	attrs    map[string]string
	text     string
	children []*fakeNode
}

func (n *fakeNode) Find(tag string) []Node {
	var out []Node
	var walk func(*fakeNode)
	walk = func(cur *fakeNode) {
		for _, c := range cur.children {
			if c.tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func (n *fakeNode) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *fakeNode) LeadingText() string {
	return n.text
}

func el(tag string, children ...*fakeNode) *fakeNode {
	return &fakeNode{tag: tag, children: children}
}

func textCell(text string) *fakeNode {
	return &fakeNode{tag: "td", text: text}
}

func headerCell(text string) *fakeNode {
	return &fakeNode{tag: "th", text: text}
}

func link(title string) *fakeNode {
	return &fakeNode{tag: "a", attrs: map[string]string{"title": title}}
}

// bankRow mirrors the Wikipedia layout: rank, flag link + bank link, value.
func bankRow(rank, name, value string) *fakeNode {
	return el("tr",
		textCell(rank),
		el("td", link("Flag of somewhere"), link(name)),
		textCell(value),
	)
}

func headerRow() *fakeNode {
	return el("tr", headerCell("Rank"), headerCell("Bank name"), headerCell("Market cap"))
}

func document(tables ...*fakeNode) *fakeNode {
	body := el("body")
	for _, t := range tables {
		body.children = append(body.children, el("table", t))
	}
	return el("html", body)
}
