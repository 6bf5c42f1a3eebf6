// Package fakedata produces synthetic form values.
package fakedata

import (
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"
)

// Faker implements fill.Generator on top of gofakeit
type Faker struct {
	f   *gofakeit.Faker
	now func() time.Time
}

// New creates a generator. A zero seed picks a random one.
func New(seed uint64) *Faker {
	return &Faker{f: gofakeit.New(seed), now: time.Now}
}

func (g *Faker) Bool() bool { return g.f.Bool() }

// Color returns a #rrggbb string as accepted by color inputs
func (g *Faker) Color() string { return strings.ToLower(g.f.HexColor()) }

// FutureDate returns a moment between tomorrow and a year from now
func (g *Faker) FutureDate() time.Time {
	now := g.now()
	return g.f.DateRange(now.Add(24*time.Hour), now.AddDate(1, 0, 0))
}

func (g *Faker) Email() string { return g.f.Email() }

// Int returns an integer in [min, max]; the bounds are swapped if reversed
func (g *Faker) Int(min, max int) int {
	if min > max {
		min, max = max, min
	}
	return g.f.IntRange(min, max)
}

func (g *Faker) Phone() string { return g.f.Phone() }

func (g *Faker) URL() string { return g.f.URL() }

// Password returns 12 characters mixing every character class
func (g *Faker) Password() string {
	return g.f.Password(true, true, true, true, false, 12)
}

// Sentence returns a capitalized sentence ending in a period
func (g *Faker) Sentence(minWords, maxWords int) string {
	if minWords < 1 {
		minWords = 1
	}
	n := g.Int(minWords, max(minWords, maxWords))
	words := make([]string, n)
	for i := range words {
		words[i] = g.f.Word()
	}
	return capitalize(strings.Join(words, " ")) + "."
}

func (g *Faker) Word() string { return g.f.Word() }

// Paragraph returns three to six sentences
func (g *Faker) Paragraph() string {
	sentences := make([]string, g.Int(3, 6))
	for i := range sentences {
		sentences[i] = g.Sentence(4, 12)
	}
	return strings.Join(sentences, " ")
}

func (g *Faker) Month() string { return g.f.MonthString() }

func (g *Faker) FirstName() string { return g.f.FirstName() }

func (g *Faker) LastName() string { return g.f.LastName() }

func (g *Faker) FullName() string { return g.f.FirstName() + " " + g.f.LastName() }

func (g *Faker) Street() string { return g.f.Street() }

func (g *Faker) City() string { return g.f.City() }

// Pick returns an index in [0, n), or 0 when n is not positive
func (g *Faker) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return g.f.IntRange(0, n-1)
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
