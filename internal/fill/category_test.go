package fill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(typ string) Element {
	return Element{Tag: "input", Type: typ, Visible: true}
}

func TestClassify(t *testing.T) {
	named := func(name string) Element {
		el := input("text")
		el.Name = name
		return el
	}

	tests := []struct {
		name string
		el   Element
		want Category
	}{
		{"combobox role wins over input type", Element{Tag: "input", Type: "text", Role: "combobox"}, CategoryCombobox},
		{"div combobox", Element{Tag: "div", Role: "combobox"}, CategoryCombobox},
		{"checkbox", input("checkbox"), CategoryCheckbox},
		{"radio", input("radio"), CategoryRadio},
		{"color", input("color"), CategoryColor},
		{"email", input("email"), CategoryEmail},
		{"tel", input("tel"), CategoryTel},
		{"url", input("url"), CategoryURL},
		{"password", input("password"), CategoryPassword},
		{"search", input("search"), CategorySearch},
		{"date", input("date"), CategoryDate},
		{"datetime-local", input("datetime-local"), CategoryDate},
		{"month", input("month"), CategoryMonth},
		{"number", input("number"), CategoryNumber},
		{"range", input("range"), CategoryNumber},
		{"time", input("time"), CategoryTime},
		{"type is case insensitive", input("EMAIL"), CategoryEmail},
		{"week is not supported", input("week"), CategoryUnsupported},
		{"file is not supported", input("file"), CategoryUnsupported},
		{"submit is not supported", input("submit"), CategoryUnsupported},
		{"missing type is text", input(""), CategoryText},
		{"unknown type is text", input("fancy"), CategoryText},
		{"date marker", Element{Tag: "input", Type: "text", Data: map[string]string{"data-input-type": "date"}}, CategoryTextDate},
		{"inputmode numeric", Element{Tag: "input", InputMode: "numeric"}, CategoryTextNumeric},
		{"inputmode decimal", Element{Tag: "input", InputMode: "decimal"}, CategoryTextNumeric},
		{"first_name", named("first_name"), CategoryFirstName},
		{"camel case firstName", named("firstName"), CategoryFirstName},
		{"last-name", named("last-name"), CategoryLastName},
		{"surname", named("surname"), CategoryLastName},
		{"full_name", named("full_name"), CategoryFullName},
		{"fullname is not a last name", named("fullname"), CategoryFullName},
		{"billing address", named("billing_address"), CategoryAddress},
		{"street", named("street"), CategoryAddress},
		{"city", named("city"), CategoryCity},
		{"bracketed city", named("user[city]"), CategoryCity},
		{"username stays text", named("username"), CategoryText},
		{"id is consulted", Element{Tag: "input", ID: "firstName"}, CategoryFirstName},
		{"autocomplete given-name", Element{Tag: "input", Autocomplete: "given-name"}, CategoryFirstName},
		{"autocomplete address-level2", Element{Tag: "input", Autocomplete: "address-level2"}, CategoryCity},
		{"autocomplete name", Element{Tag: "input", Autocomplete: "name"}, CategoryFullName},
		{"date marker beats name", Element{Tag: "input", Name: "city", Data: map[string]string{"data-input-type": "date"}}, CategoryTextDate},
		{"select", Element{Tag: "select"}, CategorySelect},
		{"textarea", Element{Tag: "textarea"}, CategoryTextArea},
		{"button", Element{Tag: "button"}, CategoryUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.el))
		})
	}
}

func TestCategoryNames(t *testing.T) {
	seen := make(map[string]Category)
	for _, c := range Categories() {
		name := c.String()
		require.NotEmpty(t, name, "category %d has no name", int(c))
		prev, dup := seen[name]
		require.False(t, dup, "categories %d and %d share the name %q", int(prev), int(c), name)
		seen[name] = c
	}
	assert.Len(t, seen, int(numCategories))
	assert.Equal(t, "category(?)", numCategories.String())
}

func TestEveryCategoryHasFiller(t *testing.T) {
	f := NewFiller(stubDoc{}, &recorder{}, newStubGen(), isoLocale{}, FillerOptions{})
	ctx := context.Background()

	for _, c := range Categories() {
		_, err := f.fillCategory(ctx, c, input("text"))
		assert.False(t, errors.Is(err, errUnhandledCategory), "category %s has no filler", c)
	}

	_, err := f.fillCategory(ctx, numCategories, input("text"))
	assert.ErrorIs(t, err, errUnhandledCategory)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"firstName":     "first_name",
		"First Name":    "first_name",
		"first-name":    "first_name",
		"user[city]":    "user_city_",
		"address-line1": "address_line1",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeName(in), in)
	}
}
