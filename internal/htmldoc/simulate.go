package htmldoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/autofill/internal/fill"
)

// ActionKind names a simulated interaction
type ActionKind string

const (
	ActionFocus  ActionKind = "focus"
	ActionBlur   ActionKind = "blur"
	ActionType   ActionKind = "type"
	ActionClick  ActionKind = "click"
	ActionPress  ActionKind = "press"
	ActionSelect ActionKind = "select"
)

// Action is one interaction applied by a Simulator
type Action struct {
	Kind   ActionKind
	Handle fill.Handle
	Text   string // typed text, pressed key or selected value
}

// Simulator applies interactions directly to the markup of a Document, the
// way a well-behaved page would react to them: typing sets the value,
// clicks toggle checkboxes and radios, ArrowDown expands a combobox and
// clicking one of its options collapses it again.
type Simulator struct {
	doc     *Document
	Actions []Action
	// OnAction runs after an action was applied. Returning an error fails
	// the interaction, which lets callers model a misbehaving page.
	OnAction func(Action) error
}

// NewSimulator creates a simulator bound to doc
func NewSimulator(doc *Document) *Simulator {
	return &Simulator{doc: doc}
}

func (s *Simulator) record(a Action) error {
	s.Actions = append(s.Actions, a)
	if s.OnAction != nil {
		return s.OnAction(a)
	}
	return nil
}

// Focus implements fill.Interactor
func (s *Simulator) Focus(_ context.Context, h fill.Handle) error {
	n, err := s.doc.node(h)
	if err != nil {
		return err
	}
	s.doc.active = n
	return s.record(Action{Kind: ActionFocus, Handle: h})
}

// Blur implements fill.Interactor
func (s *Simulator) Blur(_ context.Context, h fill.Handle) error {
	n, err := s.doc.node(h)
	if err != nil {
		return err
	}
	if s.doc.active == n {
		s.doc.active = nil
	}
	return s.record(Action{Kind: ActionBlur, Handle: h})
}

// Type implements fill.Interactor
func (s *Simulator) Type(_ context.Context, h fill.Handle, text string) error {
	n, err := s.doc.node(h)
	if err != nil {
		return err
	}
	if hasAttr(n, "readonly") || disabled(n) {
		return fmt.Errorf("type into %s: element is not editable", n.Data)
	}
	s.doc.active = n

	sel := s.doc.doc.FindNodes(n)
	switch n.Data {
	case "input":
		sel.SetAttr("value", text)
	case "textarea":
		sel.SetText(text)
	default:
		sel.SetAttr("data-value", text)
	}
	return s.record(Action{Kind: ActionType, Handle: h, Text: text})
}

// Click implements fill.Interactor
func (s *Simulator) Click(_ context.Context, h fill.Handle) error {
	n, err := s.doc.node(h)
	if err != nil {
		return err
	}
	if disabled(n) {
		return fmt.Errorf("click %s: element is disabled", n.Data)
	}
	s.doc.active = n
	sel := s.doc.doc.FindNodes(n)

	switch {
	case n.Data == "input" && strings.EqualFold(attr(n, "type"), "checkbox"):
		if hasAttr(n, "checked") {
			sel.RemoveAttr("checked")
		} else {
			sel.SetAttr("checked", "")
		}
	case n.Data == "input" && strings.EqualFold(attr(n, "type"), "radio"):
		s.doc.doc.FindNodes(s.doc.radioGroup(n)...).RemoveAttr("checked")
		sel.SetAttr("checked", "")
	default:
		s.chooseOption(n, sel)
	}
	return s.record(Action{Kind: ActionClick, Handle: h})
}

// chooseOption marks a listbox entry as selected and closes its combobox
func (s *Simulator) chooseOption(n *html.Node, sel *goquery.Selection) {
	switch attr(n, "role") {
	case "option", "menuitem", "button":
	default:
		return
	}
	sel.SetAttr("aria-selected", "true")

	s.doc.doc.Find("[role=combobox]").Each(func(_ int, cb *goquery.Selection) {
		ids := strings.Fields(attr(cb.Nodes[0], "aria-controls") + " " + attr(cb.Nodes[0], "aria-owns"))
		for _, id := range ids {
			list := s.doc.byID(id)
			if list == nil || !contains(list, n) {
				continue
			}
			cb.SetAttr("aria-expanded", "false")
			label := collapse(sel.Text())
			if cb.Nodes[0].Data == "input" {
				cb.SetAttr("value", label)
			} else {
				cb.SetAttr("data-value", label)
			}
			return
		}
	})
}

// Press implements fill.Interactor
func (s *Simulator) Press(_ context.Context, h fill.Handle, key fill.Key) error {
	n, err := s.doc.node(h)
	if err != nil {
		return err
	}
	if strings.EqualFold(attr(n, "role"), "combobox") {
		sel := s.doc.doc.FindNodes(n)
		switch key {
		case fill.KeyArrowDown:
			sel.SetAttr("aria-expanded", "true")
		case fill.KeyEscape:
			sel.SetAttr("aria-expanded", "false")
		}
	}
	return s.record(Action{Kind: ActionPress, Handle: h, Text: string(key)})
}

// Select implements fill.Interactor
func (s *Simulator) Select(_ context.Context, h fill.Handle, value string) error {
	n, err := s.doc.node(h)
	if err != nil {
		return err
	}
	if n.Data != "select" {
		return fmt.Errorf("select on <%s>", n.Data)
	}

	options := s.doc.doc.FindNodes(n).Find("option")
	target := -1
	options.EachWithBreak(func(i int, o *goquery.Selection) bool {
		if optionValue(o) == value {
			target = i
			return false
		}
		return true
	})
	if target < 0 {
		return fmt.Errorf("select: no option with value %q", value)
	}
	options.RemoveAttr("selected")
	options.Eq(target).SetAttr("selected", "")
	s.doc.active = n
	return s.record(Action{Kind: ActionSelect, Handle: h, Text: value})
}

func contains(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
