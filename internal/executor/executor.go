// Package executor drives page elements through Rod's input emulation. It
// implements fill.Interactor and can record a frame after every action.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/v0xg/autofill/internal/crawler"
	"github.com/v0xg/autofill/internal/fill"
)

// Options configures execution behavior
type Options struct {
	// SettleDelay is how long the network must stay idle after an action
	SettleDelay time.Duration
	// SettleTimeout caps the wait for the page to settle
	SettleTimeout time.Duration
	// KeyDelay is the pause between typed keys
	KeyDelay time.Duration
	Record   bool
}

// Executor implements fill.Interactor on a Rod page
type Executor struct {
	browser *crawler.Browser
	opts    Options
	logger  *zap.Logger
	frames  []Frame
}

// New creates an executor for the browser's page
func New(browser *crawler.Browser, opts Options, logger *zap.Logger) *Executor {
	if opts.SettleTimeout == 0 {
		opts.SettleTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{browser: browser, opts: opts, logger: logger}
}

// Frames returns the frames recorded so far
func (e *Executor) Frames() []Frame {
	return e.frames
}

// setValueJS assigns a value through the native setter so framework
// bindings see the change, then fires the events a user edit would.
const setValueJS = `function (value) {
	const setter = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(this), 'value').set;
	setter.call(this, value);
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`

// Focus implements fill.Interactor
func (e *Executor) Focus(ctx context.Context, h fill.Handle) error {
	return e.act(ctx, h, ActionFocus, "", func(el *rod.Element) error {
		return el.Focus()
	})
}

// Blur implements fill.Interactor
func (e *Executor) Blur(ctx context.Context, h fill.Handle) error {
	return e.act(ctx, h, ActionBlur, "", func(el *rod.Element) error {
		return el.Blur()
	})
}

// Type implements fill.Interactor. Printable ASCII is sent key by key;
// anything else goes through insertText.
func (e *Executor) Type(ctx context.Context, h fill.Handle, text string) error {
	return e.act(ctx, h, ActionType, text, func(el *rod.Element) error {
		kind, err := el.Property("type")
		if err != nil {
			return fmt.Errorf("read type: %w", err)
		}

		switch kind.Str() {
		case "color", "range":
			// neither accepts keyboard text
			_, err := el.Eval(setValueJS, text)
			return err
		}

		if err := el.Focus(); err != nil {
			return fmt.Errorf("focus: %w", err)
		}
		// date and time inputs do not support selection
		_ = el.SelectAllText()

		if !typeable(text) {
			return el.Input(text)
		}
		keyboard := e.browser.Page().Keyboard
		for _, r := range text {
			if err := keyboard.Type(input.Key(r)); err != nil {
				return fmt.Errorf("type %q: %w", r, err)
			}
			if e.opts.KeyDelay > 0 {
				time.Sleep(e.opts.KeyDelay)
			}
		}
		return nil
	})
}

// Click implements fill.Interactor
func (e *Executor) Click(ctx context.Context, h fill.Handle) error {
	return e.act(ctx, h, ActionClick, "", func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// Press implements fill.Interactor
func (e *Executor) Press(ctx context.Context, h fill.Handle, key fill.Key) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	return e.act(ctx, h, ActionPress, string(key), func(el *rod.Element) error {
		if err := el.Focus(); err != nil {
			return fmt.Errorf("focus: %w", err)
		}
		return e.browser.Page().Keyboard.Type(k)
	})
}

// Select implements fill.Interactor
func (e *Executor) Select(ctx context.Context, h fill.Handle, value string) error {
	return e.act(ctx, h, ActionSelect, value, func(el *rod.Element) error {
		return el.Select([]string{optionSelector(value)}, true, rod.SelectorTypeCSSSector)
	})
}

var keys = map[fill.Key]input.Key{
	fill.KeyArrowDown: input.ArrowDown,
	fill.KeyEscape:    input.Escape,
}

// act resolves the handle, performs fn and waits for the page to settle
func (e *Executor) act(ctx context.Context, h fill.Handle, kind ActionKind, text string, fn func(*rod.Element) error) error {
	el, err := e.browser.Element(ctx, h)
	if err != nil {
		return err
	}
	el = el.Context(ctx)

	page := e.browser.Page().Timeout(e.opts.SettleTimeout)
	defer page.CancelTimeout()
	wait := page.WaitRequestIdle(e.opts.SettleDelay, nil, nil, nil)

	if err := fn(el); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	wait()

	e.logger.Debug("action", zap.String("kind", string(kind)), zap.Int64("handle", int64(h)), zap.String("text", text))
	if e.opts.Record {
		e.capture(el, h, kind)
	}
	return nil
}

func (e *Executor) capture(el *rod.Element, h fill.Handle, kind ActionKind) {
	frame, err := captureFrame(e.browser.Page())
	if err != nil {
		e.logger.Debug("frame capture failed", zap.Error(err))
		return
	}

	f := Frame{Image: frame, Handle: h, Action: kind}
	if box, err := getElementBox(el); err == nil {
		center := box.Min.Add(box.Max).Div(2)
		f.Target = box
		f.Cursor = CursorPosition{X: center.X, Y: center.Y, State: cursorFor(kind), Click: kind == ActionClick}
	}
	e.frames = append(e.frames, f)
}

func cursorFor(kind ActionKind) CursorState {
	switch kind {
	case ActionType:
		return CursorText
	case ActionClick, ActionSelect:
		return CursorPointer
	default:
		return CursorDefault
	}
}

func typeable(text string) bool {
	for _, r := range text {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

func optionSelector(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `option[value="` + r.Replace(value) + `"]`
}

// getElementBox returns the bounding box of the element's first quad
func getElementBox(el *rod.Element) (image.Rectangle, error) {
	shape, err := el.Shape()
	if err != nil {
		return image.Rectangle{}, err
	}
	if len(shape.Quads) == 0 {
		return image.Rectangle{}, fmt.Errorf("element has no shape")
	}

	q := shape.Quads[0]
	box := image.Rect(int(q[0]), int(q[1]), int(q[0])+1, int(q[1])+1)
	for i := 2; i+1 < len(q); i += 2 {
		box = box.Union(image.Rect(int(q[i]), int(q[i+1]), int(q[i])+1, int(q[i+1])+1))
	}
	return box, nil
}

func captureFrame(page *rod.Page) (image.Image, error) {
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}
