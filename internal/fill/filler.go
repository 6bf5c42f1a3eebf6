package fill

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotExpanded = errors.New("combobox did not expand")
	ErrNoListbox   = errors.New("combobox listbox not found")
	ErrNoOptions   = errors.New("combobox listbox has no options")
	ErrBadBounds   = errors.New("invalid numeric bounds")

	errUnhandledCategory = errors.New("no filler for category")
)

// listboxOptionSelector matches the choosable entries of an opened combobox
const listboxOptionSelector = "[role=option], [role=button], [role=menuitem]"

// Default numeric bounds when min or max is not declared
const (
	wideMin  = 0
	wideMax  = 50_000_000
	rangeMin = 0
	rangeMax = 100
)

// FillerOptions tunes the combobox protocol
type FillerOptions struct {
	ComboboxTimeout time.Duration
	PollInterval    time.Duration
}

func (o FillerOptions) withDefaults() FillerOptions {
	if o.ComboboxTimeout <= 0 {
		o.ComboboxTimeout = 2 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 50 * time.Millisecond
	}
	return o
}

// Filler fills a single element. It keeps no state between calls.
type Filler struct {
	doc    Document
	in     Interactor
	gen    Generator
	locale Locale
	opts   FillerOptions
}

// NewFiller wires a filler to its document, input simulator and value source
func NewFiller(doc Document, in Interactor, gen Generator, locale Locale, opts FillerOptions) *Filler {
	return &Filler{
		doc:    doc,
		in:     in,
		gen:    gen,
		locale: locale,
		opts:   opts.withDefaults(),
	}
}

// Fill classifies el and drives it with simulated input. A non-empty reason
// means the element was left as it was.
func (f *Filler) Fill(ctx context.Context, el Element) (SkipReason, error) {
	return f.fillCategory(ctx, Classify(el), el)
}

func (f *Filler) fillCategory(ctx context.Context, c Category, el Element) (SkipReason, error) {
	switch c {
	case CategoryCombobox:
		return f.fillCombobox(ctx, el)
	case CategoryCheckbox:
		if !f.gen.Bool() {
			return SkipLeftUnchecked, nil
		}
		return SkipNone, f.in.Click(ctx, el.Handle)
	case CategoryRadio:
		return f.fillRadio(ctx, el)
	case CategoryColor:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.Color())
	case CategoryEmail:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.Email())
	case CategoryTel:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.Phone())
	case CategoryURL:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.URL())
	case CategoryPassword:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.Password())
	case CategorySearch:
		return SkipNone, f.in.Type(ctx, el.Handle, f.shortText())
	case CategoryDate, CategoryTextDate:
		return SkipNone, f.in.Type(ctx, el.Handle, f.locale.FormatDate(f.gen.FutureDate()))
	case CategoryMonth:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.Month())
	case CategoryNumber, CategoryTextNumeric:
		return f.fillNumber(ctx, el)
	case CategoryTime:
		return SkipNone, f.in.Type(ctx, el.Handle, f.locale.FormatTime(f.gen.FutureDate()))
	case CategoryFirstName:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.FirstName())
	case CategoryLastName:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.LastName())
	case CategoryFullName:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.FullName())
	case CategoryAddress:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.Street())
	case CategoryCity:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.City())
	case CategoryText:
		return SkipNone, f.in.Type(ctx, el.Handle, f.shortText())
	case CategorySelect:
		return f.fillSelect(ctx, el)
	case CategoryTextArea:
		return SkipNone, f.in.Type(ctx, el.Handle, f.gen.Paragraph())
	case CategoryUnsupported:
		return SkipUnsupported, nil
	default:
		return SkipNone, fmt.Errorf("%w: %s", errUnhandledCategory, c)
	}
}

// shortText is a 1-4 word sentence without its closing punctuation.
// It never returns an empty string.
func (f *Filler) shortText() string {
	s := strings.TrimRight(f.gen.Sentence(1, 4), ".!?,;: ")
	if s == "" {
		s = f.gen.Word()
	}
	if s == "" {
		s = "a"
	}
	return s
}

func (f *Filler) fillRadio(ctx context.Context, el Element) (SkipReason, error) {
	group, err := f.doc.RadioGroup(ctx, el.Handle)
	if err != nil {
		return SkipNone, fmt.Errorf("radio group: %w", err)
	}

	var candidates []Element
	for _, member := range group {
		if member.Checked {
			return SkipGroupSet, nil
		}
		if member.Visible && !member.Disabled {
			candidates = append(candidates, member)
		}
	}
	if len(candidates) == 0 {
		return SkipNoChoice, nil
	}
	return SkipNone, f.in.Click(ctx, candidates[f.gen.Pick(len(candidates))].Handle)
}

func (f *Filler) fillNumber(ctx context.Context, el Element) (SkipReason, error) {
	lo, hi, err := numericBounds(el)
	if err != nil {
		return SkipNone, err
	}
	return SkipNone, f.in.Type(ctx, el.Handle, strconv.Itoa(f.gen.Int(lo, hi)))
}

// numericBounds returns the inclusive integer range allowed by el's min and
// max attributes. Undeclared bounds fall back to the HTML defaults for range
// inputs and to a wide range for everything else.
func numericBounds(el Element) (int, int, error) {
	defLo, defHi := wideMin, wideMax
	if el.InputType() == "range" {
		defLo, defHi = rangeMin, rangeMax
	}

	lo, hasLo, err := parseBound(el.Min, math.Ceil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: min %q: %v", ErrBadBounds, el.Min, err)
	}
	hi, hasHi, err := parseBound(el.Max, math.Floor)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: max %q: %v", ErrBadBounds, el.Max, err)
	}

	switch {
	case !hasLo && !hasHi:
		lo, hi = defLo, defHi
	case !hasLo:
		lo = defLo
		if hi < lo {
			lo = hi - (defHi - defLo)
		}
	case !hasHi:
		hi = defHi
		if hi < lo {
			hi = lo + (defHi - defLo)
		}
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: min %s > max %s", ErrBadBounds, el.Min, el.Max)
	}
	return lo, hi, nil
}

func parseBound(s string, round func(float64) float64) (int, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return 0, false, errors.New("out of range")
	}
	return int(round(v)), true, nil
}

func (f *Filler) fillSelect(ctx context.Context, el Element) (SkipReason, error) {
	options, err := f.doc.SelectOptions(ctx, el.Handle)
	if err != nil {
		return SkipNone, fmt.Errorf("select options: %w", err)
	}

	var eligible []Option
	for _, o := range options {
		if !o.Disabled && !o.Hidden && o.Value != "" {
			eligible = append(eligible, o)
		}
	}
	if len(eligible) == 0 {
		return SkipNoChoice, nil
	}
	return SkipNone, f.in.Select(ctx, el.Handle, eligible[f.gen.Pick(len(eligible))].Value)
}

// fillCombobox opens an ARIA combobox and clicks one of its options. The
// expansion wait and the listbox lookup share one deadline.
func (f *Filler) fillCombobox(ctx context.Context, el Element) (SkipReason, error) {
	if err := f.in.Focus(ctx, el.Handle); err != nil {
		return SkipNone, fmt.Errorf("focus combobox: %w", err)
	}
	if err := f.in.Press(ctx, el.Handle, KeyArrowDown); err != nil {
		return SkipNone, fmt.Errorf("open combobox: %w", err)
	}

	deadline := time.Now().Add(f.opts.ComboboxTimeout)
	if err := f.waitExpanded(ctx, el.Handle, deadline); err != nil {
		return SkipNone, err
	}

	var options []Element
	err := f.poll(ctx, deadline, func() (bool, error) {
		var err error
		options, err = f.listboxOptions(ctx, el.Handle)
		if errors.Is(err, ErrNoListbox) || errors.Is(err, ErrNoOptions) {
			return false, err
		}
		return true, err
	})
	if err != nil {
		return SkipNone, err
	}
	return SkipNone, f.in.Click(ctx, options[f.gen.Pick(len(options))].Handle)
}

// waitExpanded polls the trigger until it reports aria-expanded="true"
func (f *Filler) waitExpanded(ctx context.Context, h Handle, deadline time.Time) error {
	return f.poll(ctx, deadline, func() (bool, error) {
		el, err := f.doc.Refresh(ctx, h)
		if err != nil {
			return true, fmt.Errorf("refresh combobox: %w", err)
		}
		if el.Expanded {
			return true, nil
		}
		return false, fmt.Errorf("%w after %s", ErrNotExpanded, f.opts.ComboboxTimeout)
	})
}

// listboxOptions resolves the listbox the trigger points at and returns its
// options. The trigger is re-read so late aria-controls updates are seen.
func (f *Filler) listboxOptions(ctx context.Context, h Handle) ([]Element, error) {
	trigger, err := f.doc.Refresh(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("refresh combobox: %w", err)
	}
	listID := strings.Fields(trigger.Controls)
	if len(listID) == 0 {
		return nil, fmt.Errorf("%w: no aria-controls or aria-owns on %s", ErrNoListbox, trigger)
	}
	listbox, ok, err := f.doc.ElementByDOMID(ctx, listID[0])
	if err != nil {
		return nil, fmt.Errorf("resolve listbox %q: %w", listID[0], err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no element with id %q", ErrNoListbox, listID[0])
	}

	options, err := f.doc.Descendants(ctx, listbox.Handle, listboxOptionSelector)
	if err != nil {
		return nil, fmt.Errorf("listbox options: %w", err)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: #%s", ErrNoOptions, listID[0])
	}
	return options, nil
}

// poll calls try every PollInterval until it reports done or the deadline
// passes. On timeout the error from the last attempt is returned.
func (f *Filler) poll(ctx context.Context, deadline time.Time, try func() (done bool, err error)) error {
	for {
		done, err := try()
		if done || !time.Now().Before(deadline) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.opts.PollInterval):
		}
	}
}
