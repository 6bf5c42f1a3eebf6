package htmldoc

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/autofill/internal/fill"
)

var _ fill.Document = (*Document)(nil)

func parse(t *testing.T, page string) *Document {
	t.Helper()
	doc, err := ParseString(page)
	require.NoError(t, err)
	return doc
}

func byID(t *testing.T, doc *Document) map[string]fill.Element {
	t.Helper()
	controls, err := doc.Controls(context.Background())
	require.NoError(t, err)
	out := make(map[string]fill.Element, len(controls))
	for _, el := range controls {
		out[el.ID] = el
	}
	return out
}

func TestControlsKeepHandles(t *testing.T) {
	doc := parse(t, `<input id="a"><select id="b"></select><textarea id="c"></textarea><div id="d" role="combobox"></div><button id="e"></button>`)
	ctx := context.Background()

	first, err := doc.Controls(ctx)
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{first[0].ID, first[1].ID, first[2].ID, first[3].ID})

	doc.Find("body").PrependHtml(`<input id="z">`)
	second, err := doc.Controls(ctx)
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, "z", second[0].ID)
	assert.Equal(t, first[0].Handle, second[1].Handle)
	assert.NotContains(t, []fill.Handle{first[0].Handle, first[1].Handle, first[2].Handle, first[3].Handle}, second[0].Handle)
}

func TestDescribe(t *testing.T) {
	els := byID(t, parse(t, `<form>
		<input id="mail" type="EMAIL" name="contact" autocomplete="email" inputmode="email" data-test="x">
		<input id="num" type="number" min="1" max="9" readonly>
		<input id="box" type="checkbox" checked>
		<textarea id="bio">  hello </textarea>
		<select id="pre"><option value="a">A</option><option value="b" selected>B</option></select>
		<select id="first"><option>One</option><option>Two</option></select>
		<input id="cb" role="combobox" aria-expanded="true" aria-owns="list">
	</form>`))

	mail := els["mail"]
	assert.Equal(t, "input", mail.Tag)
	assert.Equal(t, "email", mail.Type)
	assert.Equal(t, "contact", mail.Name)
	assert.Equal(t, "email", mail.Autocomplete)
	assert.Equal(t, map[string]string{"data-test": "x"}, mail.Data)

	assert.Equal(t, "1", els["num"].Min)
	assert.Equal(t, "9", els["num"].Max)
	assert.True(t, els["num"].ReadOnly)
	assert.True(t, els["box"].Checked)
	assert.Equal(t, "  hello ", els["bio"].Value)
	assert.Equal(t, "b", els["pre"].Value)
	assert.Equal(t, "One", els["first"].Value)
	assert.True(t, els["cb"].Expanded)
	assert.Equal(t, "list", els["cb"].Controls)
}

func TestVisibility(t *testing.T) {
	els := byID(t, parse(t, `
		<input id="shown">
		<input id="hidden-type" type="hidden">
		<input id="hidden-attr" hidden>
		<div hidden><input id="in-hidden"></div>
		<div style="display:none"><input id="in-none"></div>
		<input id="invisible" style="color: red; visibility: hidden !important">
		<template><input id="in-template"></template>
	`))

	assert.True(t, els["shown"].Visible)
	assert.True(t, els["hidden-type"].Visible, "hidden inputs are left to eligibility")
	for _, id := range []string{"hidden-attr", "in-hidden", "in-none", "invisible", "in-template"} {
		assert.False(t, els[id].Visible, id)
	}
}

func TestDisabled(t *testing.T) {
	els := byID(t, parse(t, `
		<input id="plain">
		<input id="attr" disabled>
		<input id="aria" aria-disabled="true">
		<fieldset disabled><input id="in-fieldset"></fieldset>
	`))

	assert.False(t, els["plain"].Disabled)
	assert.True(t, els["attr"].Disabled)
	assert.True(t, els["aria"].Disabled)
	assert.True(t, els["in-fieldset"].Disabled)
}

func TestRadioGroupIsScopedToForm(t *testing.T) {
	doc := parse(t, `
		<form id="one"><input id="a" type="radio" name="r"><input id="b" type="radio" name="r"></form>
		<form id="two"><input id="c" type="radio" name="r"></form>
		<input id="d" type="radio" name="r" form="one">
		<input id="e" type="radio">
	`)
	els := byID(t, doc)
	ctx := context.Background()

	group, err := doc.RadioGroup(ctx, els["a"].Handle)
	require.NoError(t, err)
	var ids []string
	for _, el := range group {
		ids = append(ids, el.ID)
	}
	assert.Equal(t, []string{"a", "b", "d"}, ids)

	group, err = doc.RadioGroup(ctx, els["c"].Handle)
	require.NoError(t, err)
	require.Len(t, group, 1)

	group, err = doc.RadioGroup(ctx, els["e"].Handle)
	require.NoError(t, err)
	require.Len(t, group, 1)
	assert.Equal(t, "e", group[0].ID)
}

func TestSelectOptions(t *testing.T) {
	doc := parse(t, `<select id="s">
		<option value="">Choose</option>
		<option label="Basic plan" value="basic">ignored</option>
		<option disabled>Legacy</option>
		<optgroup disabled><option value="x">X</option></optgroup>
		<option hidden value="h">Secret</option>
	</select>`)

	opts, err := doc.SelectOptions(context.Background(), byID(t, doc)["s"].Handle)
	require.NoError(t, err)
	want := []fill.Option{
		{Value: "", Label: "Choose"},
		{Value: "basic", Label: "Basic plan"},
		{Value: "Legacy", Label: "Legacy", Disabled: true},
		{Value: "x", Label: "X", Disabled: true},
		{Value: "h", Label: "Secret", Hidden: true},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("SelectOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestLookups(t *testing.T) {
	doc := parse(t, `<form>
		<input id="a">
		<ul id="list"><li role="option">One</li><li role="option">Two</li><li>sep</li></ul>
		<input type="submit" id="go">
		<button type="submit" id="later">Later</button>
	</form>`)
	ctx := context.Background()

	list, ok, err := doc.ElementByDOMID(ctx, "list")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ul", list.Tag)

	_, ok, err = doc.ElementByDOMID(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	options, err := doc.Descendants(ctx, list.Handle, "[role=option]")
	require.NoError(t, err)
	assert.Len(t, options, 2)

	submit, ok, err := doc.SubmitButton(ctx, fill.DefaultSubmitSelector)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "go", submit.ID)

	_, ok, err = doc.ActiveElement(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetachedHandles(t *testing.T) {
	doc := parse(t, `<div id="wrap"><input id="a"></div>`)
	a := byID(t, doc)["a"]

	doc.Find("#wrap").Remove()

	_, err := doc.Refresh(context.Background(), a.Handle)
	assert.ErrorIs(t, err, ErrDetached)

	_, err = doc.Refresh(context.Background(), fill.Handle(99))
	assert.Error(t, err)
}
