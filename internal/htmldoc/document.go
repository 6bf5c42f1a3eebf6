// Package htmldoc implements the fill ports over a static HTML document.
// Visibility is approximated from markup alone: the hidden attribute, inline
// display/visibility styles and template content. Hidden inputs count as
// visible here and are left to the eligibility rules.
package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/autofill/internal/fill"
)

// ErrDetached is returned for handles whose node was removed from the tree
var ErrDetached = errors.New("element is no longer in the document")

// Document is a parsed page. It is not safe for concurrent use.
type Document struct {
	doc     *goquery.Document
	handles map[*html.Node]fill.Handle
	nodes   []*html.Node
	active  *html.Node
}

// Parse reads an HTML page
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		doc:     doc,
		handles: make(map[*html.Node]fill.Handle),
	}, nil
}

// ParseString is Parse for an in-memory page
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Find runs a CSS query against the current tree
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// HTML renders the current tree, including every applied fill
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Selection returns the node behind a handle
func (d *Document) Selection(h fill.Handle) (*goquery.Selection, error) {
	n, err := d.node(h)
	if err != nil {
		return nil, err
	}
	return d.doc.FindNodes(n), nil
}

func (d *Document) handle(n *html.Node) fill.Handle {
	if h, ok := d.handles[n]; ok {
		return h
	}
	d.nodes = append(d.nodes, n)
	h := fill.Handle(len(d.nodes))
	d.handles[n] = h
	return h
}

func (d *Document) node(h fill.Handle) (*html.Node, error) {
	if h <= 0 || int(h) > len(d.nodes) {
		return nil, fmt.Errorf("unknown handle %d", h)
	}
	n := d.nodes[h-1]
	if !d.attached(n) {
		return nil, fmt.Errorf("handle %d: %w", h, ErrDetached)
	}
	return n, nil
}

func (d *Document) attached(n *html.Node) bool {
	root := d.doc.Nodes[0]
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func (d *Document) describeAll(sel *goquery.Selection) []fill.Element {
	out := make([]fill.Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		out = append(out, d.describe(n))
	}
	return out
}

func (d *Document) describe(n *html.Node) fill.Element {
	el := fill.Element{
		Handle:       d.handle(n),
		Tag:          strings.ToLower(n.Data),
		Name:         attr(n, "name"),
		ID:           attr(n, "id"),
		Role:         attr(n, "role"),
		InputMode:    attr(n, "inputmode"),
		Autocomplete: attr(n, "autocomplete"),
		Min:          attr(n, "min"),
		Max:          attr(n, "max"),
		Checked:      hasAttr(n, "checked"),
		ReadOnly:     hasAttr(n, "readonly"),
		Disabled:     disabled(n),
		Visible:      visible(n),
		Expanded:     attr(n, "aria-expanded") == "true",
		Controls:     attr(n, "aria-controls"),
	}
	if el.Controls == "" {
		el.Controls = attr(n, "aria-owns")
	}
	if el.Tag == "input" {
		el.Type = strings.ToLower(attr(n, "type"))
	}
	el.Value = d.value(n, el.Tag)

	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "data-") {
			if el.Data == nil {
				el.Data = make(map[string]string)
			}
			el.Data[key] = a.Val
		}
	}
	return el
}

func (d *Document) value(n *html.Node, tag string) string {
	switch tag {
	case "input":
		return attr(n, "value")
	case "textarea":
		return d.doc.FindNodes(n).Text()
	case "select":
		options := d.doc.FindNodes(n).Find("option")
		if options.Length() == 0 {
			return ""
		}
		chosen := options.Filter("[selected]").First()
		if chosen.Length() == 0 {
			chosen = options.First()
		}
		return optionValue(chosen)
	}
	return ""
}

// Controls implements fill.Document
func (d *Document) Controls(_ context.Context) ([]fill.Element, error) {
	return d.describeAll(d.doc.Find(fill.ControlSelector)), nil
}

// Refresh implements fill.Document
func (d *Document) Refresh(_ context.Context, h fill.Handle) (fill.Element, error) {
	n, err := d.node(h)
	if err != nil {
		return fill.Element{}, err
	}
	return d.describe(n), nil
}

// RadioGroup implements fill.Document. Groups are scoped to the owning form.
func (d *Document) RadioGroup(_ context.Context, h fill.Handle) ([]fill.Element, error) {
	n, err := d.node(h)
	if err != nil {
		return nil, err
	}
	group := d.radioGroup(n)
	out := make([]fill.Element, 0, len(group))
	for _, m := range group {
		out = append(out, d.describe(m))
	}
	return out, nil
}

// radioGroup returns the radio inputs sharing n's name and form owner
func (d *Document) radioGroup(n *html.Node) []*html.Node {
	name := attr(n, "name")
	if name == "" {
		return []*html.Node{n}
	}

	owner := d.formOwner(n)
	var group []*html.Node
	d.doc.Find("input").Each(func(_ int, s *goquery.Selection) {
		m := s.Nodes[0]
		if strings.EqualFold(attr(m, "type"), "radio") && attr(m, "name") == name && d.formOwner(m) == owner {
			group = append(group, m)
		}
	})
	return group
}

func (d *Document) formOwner(n *html.Node) *html.Node {
	if id := attr(n, "form"); id != "" {
		if form := d.byID(id); form != nil {
			return form
		}
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "form" {
			return p
		}
	}
	return nil
}

// SelectOptions implements fill.Document
func (d *Document) SelectOptions(_ context.Context, h fill.Handle) ([]fill.Option, error) {
	n, err := d.node(h)
	if err != nil {
		return nil, err
	}
	var options []fill.Option
	d.doc.FindNodes(n).Find("option").Each(func(_ int, s *goquery.Selection) {
		o := s.Nodes[0]
		label := attr(o, "label")
		if label == "" {
			label = collapse(s.Text())
		}
		options = append(options, fill.Option{
			Value:    optionValue(s),
			Label:    label,
			Disabled: hasAttr(o, "disabled") || (o.Parent != nil && o.Parent.Data == "optgroup" && hasAttr(o.Parent, "disabled")),
			Hidden:   hasAttr(o, "hidden"),
		})
	})
	return options, nil
}

// ElementByDOMID implements fill.Document
func (d *Document) ElementByDOMID(_ context.Context, id string) (fill.Element, bool, error) {
	n := d.byID(id)
	if n == nil {
		return fill.Element{}, false, nil
	}
	return d.describe(n), true, nil
}

func (d *Document) byID(id string) *html.Node {
	var found *html.Node
	d.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if attr(s.Nodes[0], "id") == id {
			found = s.Nodes[0]
			return false
		}
		return true
	})
	return found
}

// Descendants implements fill.Document
func (d *Document) Descendants(_ context.Context, h fill.Handle, selector string) ([]fill.Element, error) {
	n, err := d.node(h)
	if err != nil {
		return nil, err
	}
	return d.describeAll(d.doc.FindNodes(n).Find(selector)), nil
}

// SubmitButton implements fill.Document
func (d *Document) SubmitButton(_ context.Context, selector string) (fill.Element, bool, error) {
	s := d.doc.Find(selector).First()
	if s.Length() == 0 {
		return fill.Element{}, false, nil
	}
	return d.describe(s.Nodes[0]), true, nil
}

// ActiveElement implements fill.Document
func (d *Document) ActiveElement(_ context.Context) (fill.Element, bool, error) {
	if d.active == nil || !d.attached(d.active) {
		return fill.Element{}, false, nil
	}
	return d.describe(d.active), true, nil
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := lookupAttr(n, key)
	return ok
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func optionValue(s *goquery.Selection) string {
	if v, ok := s.Attr("value"); ok {
		return v
	}
	return collapse(s.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var controlTags = map[string]bool{
	"input": true, "select": true, "textarea": true, "button": true,
}

func disabled(n *html.Node) bool {
	if attr(n, "aria-disabled") == "true" {
		return true
	}
	if !controlTags[n.Data] {
		return false
	}
	if hasAttr(n, "disabled") {
		return true
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "fieldset" && hasAttr(p, "disabled") {
			return true
		}
	}
	return false
}

func visible(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if p.Data == "template" || hasAttr(p, "hidden") || hiddenByStyle(attr(p, "style")) {
			return false
		}
	}
	return true
}

func hiddenByStyle(style string) bool {
	if style == "" {
		return false
	}
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important")))
		if (prop == "display" && val == "none") || (prop == "visibility" && val == "hidden") {
			return true
		}
	}
	return false
}
