package fill

import "strings"

// Category is the fill strategy chosen for an element
type Category int

const (
	CategoryUnsupported Category = iota
	CategoryCombobox
	CategoryCheckbox
	CategoryRadio
	CategoryColor
	CategoryEmail
	CategoryTel
	CategoryURL
	CategoryPassword
	CategorySearch
	CategoryDate
	CategoryMonth
	CategoryNumber
	CategoryTime
	CategoryTextDate
	CategoryTextNumeric
	CategoryFirstName
	CategoryLastName
	CategoryFullName
	CategoryAddress
	CategoryCity
	CategoryText
	CategorySelect
	CategoryTextArea

	numCategories
)

var categoryNames = [numCategories]string{
	CategoryUnsupported: "unsupported",
	CategoryCombobox:    "combobox",
	CategoryCheckbox:    "checkbox",
	CategoryRadio:       "radio",
	CategoryColor:       "color",
	CategoryEmail:       "email",
	CategoryTel:         "tel",
	CategoryURL:         "url",
	CategoryPassword:    "password",
	CategorySearch:      "search",
	CategoryDate:        "date",
	CategoryMonth:       "month",
	CategoryNumber:      "number",
	CategoryTime:        "time",
	CategoryTextDate:    "text/date",
	CategoryTextNumeric: "text/numeric",
	CategoryFirstName:   "text/first-name",
	CategoryLastName:    "text/last-name",
	CategoryFullName:    "text/full-name",
	CategoryAddress:     "text/address",
	CategoryCity:        "text/city",
	CategoryText:        "text",
	CategorySelect:      "select",
	CategoryTextArea:    "textarea",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return "category(?)"
	}
	return categoryNames[c]
}

// Categories lists every category in declaration order
func Categories() []Category {
	out := make([]Category, 0, numCategories)
	for c := Category(0); c < numCategories; c++ {
		out = append(out, c)
	}
	return out
}

// Classify maps an element to its category. The first matching rule wins.
func Classify(el Element) Category {
	if strings.EqualFold(el.Role, "combobox") {
		return CategoryCombobox
	}

	switch el.Tag {
	case "select":
		return CategorySelect
	case "textarea":
		return CategoryTextArea
	case "input":
		return classifyInput(el)
	default:
		return CategoryUnsupported
	}
}

func classifyInput(el Element) Category {
	switch el.InputType() {
	case "checkbox":
		return CategoryCheckbox
	case "radio":
		return CategoryRadio
	case "color":
		return CategoryColor
	case "email":
		return CategoryEmail
	case "tel":
		return CategoryTel
	case "url":
		return CategoryURL
	case "password":
		return CategoryPassword
	case "search":
		return CategorySearch
	case "date", "datetime-local":
		return CategoryDate
	case "month":
		return CategoryMonth
	case "number", "range":
		return CategoryNumber
	case "time":
		return CategoryTime
	case "text":
		return classifyText(el)
	default:
		// week, file, hidden and the button-like types
		return CategoryUnsupported
	}
}

// dateMarker is the data attribute that flags a text input as a date picker
const dateMarker = "data-input-type"

func classifyText(el Element) Category {
	if v, ok := el.Attr(dateMarker); ok && strings.EqualFold(v, "date") {
		return CategoryTextDate
	}
	switch strings.ToLower(el.InputMode) {
	case "decimal", "numeric":
		return CategoryTextNumeric
	}
	if c, ok := classifyByName(el); ok {
		return c
	}
	return CategoryText
}

type namePattern struct {
	category  Category
	fragments []string
}

// namePatterns are checked in order against the normalized name, id and
// autocomplete attributes. full name must precede last name: "fullname"
// contains "lname".
var namePatterns = []namePattern{
	{CategoryFullName, []string{"full_name", "fullname"}},
	{CategoryFirstName, []string{"first_name", "firstname", "given_name", "givenname", "fname"}},
	{CategoryLastName, []string{"last_name", "lastname", "family_name", "familyname", "surname", "lname"}},
	{CategoryCity, []string{"city", "address_level2"}},
	{CategoryAddress, []string{"address", "street"}},
}

func classifyByName(el Element) (Category, bool) {
	for _, attr := range []string{el.Name, el.ID, el.Autocomplete} {
		key := normalizeName(attr)
		if key == "" {
			continue
		}
		for _, p := range namePatterns {
			for _, frag := range p.fragments {
				if strings.Contains(key, frag) {
					return p.category, true
				}
			}
		}
	}
	// autocomplete="name" is the one exact-match token for a whole name
	if normalizeName(el.Autocomplete) == "name" {
		return CategoryFullName, true
	}
	return CategoryUnsupported, false
}

// normalizeName folds "firstName", "first-name" and "First Name" to first_name
func normalizeName(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '-' || r == ' ' || r == '.' || r == '[' || r == ']':
			b.WriteByte('_')
			prevLower = false
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = r >= 'a' && r <= 'z'
		}
	}
	return b.String()
}
