package fill

// DefaultOptOutAttr marks elements that must never be filled
const DefaultOptOutAttr = "data-autofill-ignore"

// SkipReason explains why an element was not filled
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipInvisible   SkipReason = "not visible"
	SkipDisabled    SkipReason = "disabled"
	SkipHidden      SkipReason = "hidden input"
	SkipPrefilled   SkipReason = "already has a value"
	SkipReadOnly    SkipReason = "read-only"
	SkipOptedOut    SkipReason = "opted out"
	SkipUnsupported SkipReason = "unsupported category"

	// Reported by the filler when an eligible element is left as it was
	SkipGroupSet      SkipReason = "radio group already set"
	SkipLeftUnchecked SkipReason = "left unchecked"
	SkipNoChoice      SkipReason = "nothing to choose"
)

// Eligible reports whether el should receive a generated value.
// Radio buttons are judged as a group when filled, so their value is ignored
// here. Checkboxes count as pre-filled when checked, since their value
// attribute is a submission token and not user input.
func Eligible(el Element, optOutAttr string) (bool, SkipReason) {
	if optOutAttr == "" {
		optOutAttr = DefaultOptOutAttr
	}
	inputType := el.InputType()

	switch {
	case inputType == "hidden":
		return false, SkipHidden
	case !el.Visible:
		return false, SkipInvisible
	case el.Disabled:
		return false, SkipDisabled
	case inputType == "checkbox" && el.Checked:
		return false, SkipPrefilled
	case inputType != "radio" && inputType != "checkbox" && el.Value != "":
		return false, SkipPrefilled
	case el.ReadOnly && (el.Tag == "input" || el.Tag == "textarea"):
		return false, SkipReadOnly
	}
	if _, ok := el.Attr(optOutAttr); ok {
		return false, SkipOptedOut
	}
	return true, SkipNone
}
