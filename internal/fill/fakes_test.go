package fill

import (
	"context"
	"errors"
	"time"
)

var errStub = errors.New("stub document")

// stubGen returns fixed values so typed text can be asserted exactly
type stubGen struct {
	coin     bool
	pick     int
	sentence string
	word     string
}

func newStubGen() *stubGen {
	return &stubGen{coin: true, sentence: "Lorem ipsum dolor.", word: "lorem"}
}

func (g *stubGen) Bool() bool            { return g.coin }
func (g *stubGen) Color() string         { return "#336699" }
func (g *stubGen) FutureDate() time.Time { return time.Date(2030, 5, 17, 14, 30, 0, 0, time.UTC) }
func (g *stubGen) Email() string         { return "jane@example.com" }
func (g *stubGen) Int(min, max int) int  { return min }
func (g *stubGen) Phone() string         { return "5550100" }
func (g *stubGen) URL() string           { return "https://example.com" }
func (g *stubGen) Password() string      { return "s3cret!Pass" }
func (g *stubGen) Sentence(_, _ int) string {
	return g.sentence
}
func (g *stubGen) Word() string      { return g.word }
func (g *stubGen) Paragraph() string { return "A whole paragraph." }
func (g *stubGen) Month() string     { return "May" }
func (g *stubGen) FirstName() string { return "Jane" }
func (g *stubGen) LastName() string  { return "Doe" }
func (g *stubGen) FullName() string  { return "Jane Doe" }
func (g *stubGen) Street() string    { return "1 Main St" }
func (g *stubGen) City() string      { return "Springfield" }
func (g *stubGen) Pick(n int) int    { return min(g.pick, n-1) }

type isoLocale struct{}

func (isoLocale) FormatDate(t time.Time) string { return t.Format("2006-01-02") }
func (isoLocale) FormatTime(t time.Time) string { return t.Format("15:04") }

type call struct {
	kind string
	h    Handle
	text string
}

// recorder is an Interactor that only remembers what it was asked to do
type recorder struct {
	calls []call
	err   error
}

func (r *recorder) add(kind string, h Handle, text string) error {
	r.calls = append(r.calls, call{kind, h, text})
	return r.err
}

func (r *recorder) Focus(_ context.Context, h Handle) error { return r.add("focus", h, "") }
func (r *recorder) Blur(_ context.Context, h Handle) error  { return r.add("blur", h, "") }
func (r *recorder) Type(_ context.Context, h Handle, text string) error {
	return r.add("type", h, text)
}
func (r *recorder) Click(_ context.Context, h Handle) error { return r.add("click", h, "") }
func (r *recorder) Press(_ context.Context, h Handle, k Key) error {
	return r.add("press", h, string(k))
}
func (r *recorder) Select(_ context.Context, h Handle, v string) error {
	return r.add("select", h, v)
}

// stubDoc fails every query
type stubDoc struct{}

func (stubDoc) Controls(context.Context) ([]Element, error)           { return nil, errStub }
func (stubDoc) Refresh(context.Context, Handle) (Element, error)      { return Element{}, errStub }
func (stubDoc) RadioGroup(context.Context, Handle) ([]Element, error) { return nil, errStub }
func (stubDoc) SelectOptions(context.Context, Handle) ([]Option, error) {
	return nil, errStub
}
func (stubDoc) ElementByDOMID(context.Context, string) (Element, bool, error) {
	return Element{}, false, errStub
}
func (stubDoc) Descendants(context.Context, Handle, string) ([]Element, error) {
	return nil, errStub
}
func (stubDoc) SubmitButton(context.Context, string) (Element, bool, error) {
	return Element{}, false, errStub
}
func (stubDoc) ActiveElement(context.Context) (Element, bool, error) {
	return Element{}, false, errStub
}
