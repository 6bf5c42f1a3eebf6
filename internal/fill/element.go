package fill

import (
	"fmt"
	"strings"
)

// Handle identifies a live element for the lifetime of one execution.
// Two elements are the same element iff their handles are equal.
type Handle int64

// ControlSelector matches every element the discovery loop considers
const ControlSelector = "input, select, textarea, [role=combobox]"

// Element is a snapshot of one form control, taken when it was queried.
// It does not own the underlying DOM node; fills go through the Interactor.
type Element struct {
	Handle       Handle            `json:"handle"`
	Tag          string            `json:"tag"`  // lower-case tag name
	Type         string            `json:"type"` // input type as reported by the document
	Name         string            `json:"name,omitempty"`
	ID           string            `json:"id,omitempty"`
	Role         string            `json:"role,omitempty"`
	InputMode    string            `json:"inputMode,omitempty"`
	Autocomplete string            `json:"autocomplete,omitempty"`
	Value        string            `json:"value,omitempty"`
	Checked      bool              `json:"checked,omitempty"`
	Disabled     bool              `json:"disabled,omitempty"`
	ReadOnly     bool              `json:"readOnly,omitempty"`
	Visible      bool              `json:"visible"`
	Min          string            `json:"min,omitempty"`
	Max          string            `json:"max,omitempty"`
	Expanded     bool              `json:"expanded,omitempty"` // aria-expanded="true"
	Controls     string            `json:"controls,omitempty"` // aria-controls, falling back to aria-owns
	Data         map[string]string `json:"data,omitempty"`     // data-* attributes
}

// Attr returns a data-* attribute of the element
func (e Element) Attr(name string) (string, bool) {
	v, ok := e.Data[strings.ToLower(name)]
	return v, ok
}

// InputType returns the effective type of an input element. Missing or
// unknown type attributes behave as "text", like they do in a browser.
func (e Element) InputType() string {
	if e.Tag != "input" {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(e.Type))
	if _, known := knownInputTypes[t]; known {
		return t
	}
	return "text"
}

// String renders a short selector-like description used in logs
func (e Element) String() string {
	var b strings.Builder
	b.WriteString(e.Tag)
	if e.Tag == "input" {
		fmt.Fprintf(&b, "[type=%s]", e.InputType())
	}
	if e.Role != "" {
		fmt.Fprintf(&b, "[role=%s]", e.Role)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, "[name=%q]", e.Name)
	}
	if e.ID != "" {
		b.WriteString("#" + e.ID)
	}
	fmt.Fprintf(&b, " (handle %d)", e.Handle)
	return b.String()
}

var knownInputTypes = map[string]struct{}{
	"button": {}, "checkbox": {}, "color": {}, "date": {}, "datetime-local": {},
	"email": {}, "file": {}, "hidden": {}, "image": {}, "month": {}, "number": {},
	"password": {}, "radio": {}, "range": {}, "reset": {}, "search": {}, "submit": {},
	"tel": {}, "text": {}, "time": {}, "url": {}, "week": {},
}

// Option is one <option> of a select element
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
	Hidden   bool   `json:"hidden"`
}
