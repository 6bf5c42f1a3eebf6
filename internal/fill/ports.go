package fill

import (
	"context"
	"time"
)

// Document queries the live page. Implementations return elements in
// document order and keep handles stable for the whole execution.
type Document interface {
	// Controls returns every element matching ControlSelector
	Controls(ctx context.Context) ([]Element, error)
	// Refresh re-reads the current state of a previously returned element
	Refresh(ctx context.Context, h Handle) (Element, error)
	// RadioGroup returns all radio buttons sharing h's group, h included
	RadioGroup(ctx context.Context, h Handle) ([]Element, error)
	SelectOptions(ctx context.Context, h Handle) ([]Option, error)
	// ElementByDOMID resolves an id attribute; ok is false when nothing matches
	ElementByDOMID(ctx context.Context, id string) (el Element, ok bool, err error)
	Descendants(ctx context.Context, h Handle, selector string) ([]Element, error)
	SubmitButton(ctx context.Context, selector string) (el Element, ok bool, err error)
	ActiveElement(ctx context.Context) (el Element, ok bool, err error)
}

// Key is a named keyboard key
type Key string

const (
	KeyArrowDown Key = "ArrowDown"
	KeyEscape    Key = "Escape"
)

// Interactor simulates user input. Every call produces the native event
// sequence a real user would and returns once the page has settled.
type Interactor interface {
	Focus(ctx context.Context, h Handle) error
	Blur(ctx context.Context, h Handle) error
	// Type replaces the element's current text with text, key by key
	Type(ctx context.Context, h Handle, text string) error
	Click(ctx context.Context, h Handle) error
	Press(ctx context.Context, h Handle, key Key) error
	// Select picks the option with the given value on a select element
	Select(ctx context.Context, h Handle, value string) error
}

// Generator produces fresh synthetic values. Every call returns a new value.
type Generator interface {
	Bool() bool
	Color() string
	FutureDate() time.Time
	Email() string
	// Int returns an integer in [min, max]
	Int(min, max int) int
	Phone() string
	URL() string
	Password() string
	// Sentence returns between minWords and maxWords words ending in punctuation
	Sentence(minWords, maxWords int) string
	Word() string
	Paragraph() string
	Month() string
	FirstName() string
	LastName() string
	FullName() string
	Street() string
	City() string
	// Pick returns an index in [0, n)
	Pick(n int) int
}

// Locale formats dates and times the way the page's user would type them
type Locale interface {
	FormatDate(t time.Time) string
	FormatTime(t time.Time) string
}
