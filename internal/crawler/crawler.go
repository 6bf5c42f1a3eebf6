// Package crawler opens a page in Chromium and exposes its live DOM to the
// fill engine.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/text/language"

	"github.com/v0xg/autofill/internal/fill"
)

// ErrDetached is returned when a handle's element left the document
var ErrDetached = errors.New("element is no longer in the document")

// Options configures how the browser is started
type Options struct {
	Width      int
	Height     int
	Timeout    time.Duration
	Headless   bool
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	ControlURL string // DevTools URL of an already running browser
	// Locale, when set, overrides the page's navigator.language and the
	// format native date and time inputs expect
	Locale string
}

// Browser wraps the Rod browser and the page being filled
type Browser struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	attached bool
	cleanup  bool // remove the temporary user data dir on close
}

// Close releases the page and the browser when this process launched them.
// Pages opened in an attached browser stay open for the user.
func (b *Browser) Close() {
	if b.attached {
		return
	}
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil && b.cleanup {
		b.launcher.Cleanup()
	}
}

// Page returns the underlying Rod page
func (b *Browser) Page() *rod.Page {
	return b.page
}

// Document returns the live DOM of the page as a fill.Document
func (b *Browser) Document() *Document {
	return &Document{page: b.page}
}

// Launch starts (or attaches to) a browser, opens url and waits for the
// page to settle.
func Launch(ctx context.Context, url string, opts Options) (*Browser, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	b := &Browser{}
	controlURL := opts.ControlURL
	if controlURL != "" {
		u, err := launcher.ResolveURL(controlURL)
		if err != nil {
			return nil, fmt.Errorf("resolve browser url: %w", err)
		}
		controlURL = u
		b.attached = true
	} else {
		l := launcher.New().Headless(opts.Headless)
		if path, has := launcher.LookPath(); has {
			l = l.Bin(path)
		}
		if opts.ProfileDir != "" {
			l = l.UserDataDir(opts.ProfileDir)
		}
		if opts.Locale != "" {
			l = l.Set("lang", opts.Locale)
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		b.launcher = l
		b.cleanup = opts.ProfileDir == ""
		controlURL = u
	}

	b.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.browser.Connect(); err != nil {
		b.Close()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	b.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if opts.Locale != "" {
		icu, err := icuLocale(opts.Locale)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("locale %q: %w", opts.Locale, err)
		}
		if err := (proto.EmulationSetLocaleOverride{Locale: icu}).Call(page); err != nil {
			b.Close()
			return nil, fmt.Errorf("override locale: %w", err)
		}
	}

	if err := page.Timeout(opts.Timeout).Navigate(url); err != nil {
		b.Close()
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	if err := page.Timeout(opts.Timeout).WaitLoad(); err != nil {
		b.Close()
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	// Use timeout to avoid hanging on persistent connections (WebSockets, polling, etc.)
	page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	// SPAs render their forms after hydration
	if detectSPA(page) {
		waitForControls(page, 5*time.Second)
	}

	return b, nil
}

// Language returns the page's navigator.language
func (b *Browser) Language(ctx context.Context) (string, error) {
	res, err := b.page.Context(ctx).Eval(`() => navigator.language`)
	if err != nil {
		return "", fmt.Errorf("read page language: %w", err)
	}
	return res.Value.Str(), nil
}

// icuLocale converts a BCP 47 or POSIX locale name to the underscore form
// the emulation domain takes: "de-DE" and "de_DE.UTF-8" both become "de_DE".
func icuLocale(name string) (string, error) {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.No {
		return base.String(), nil
	}
	return base.String() + "_" + region.String(), nil
}

// Element resolves a handle handed out by Document to a Rod element
func (b *Browser) Element(ctx context.Context, h fill.Handle) (*rod.Element, error) {
	el, err := b.page.Context(ctx).Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(resolveJS, int64(h)))
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("handle %d: %w", h, ErrDetached)
		}
		return nil, fmt.Errorf("resolve handle %d: %w", h, err)
	}
	return el, nil
}

// waitForControls polls until form controls appear or timeout
func waitForControls(page *rod.Page, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	checkInterval := 200 * time.Millisecond

	for time.Now().Before(deadline) {
		res, err := page.Eval(controlCountJS, fill.ControlSelector)
		if err == nil && res.Value.Int() > 0 {
			// Found controls, wait a tiny bit more for any final renders
			time.Sleep(300 * time.Millisecond)
			return
		}
		time.Sleep(checkInterval)
	}
}

// detectSPA checks if the page is a Single Page Application
func detectSPA(page *rod.Page) bool {
	res, err := page.Eval(`() => {
		// React
		if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
		// Vue
		if (window.__VUE__ || document.querySelector('[data-v-app]')) return true;
		// Angular
		if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
		// Svelte
		if (document.querySelector('[class*="svelte-"]')) return true;
		return false;
	}`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// Document implements fill.Document over a live Rod page
type Document struct {
	page *rod.Page
}

// eval runs js and decodes its JSON result into out. It reports false when
// the script returned null.
func (d *Document) eval(ctx context.Context, out interface{}, js string, args ...interface{}) (bool, error) {
	res, err := d.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return false, err
	}
	if res.Value.Nil() {
		return false, nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode result: %w", err)
	}
	return true, nil
}

// Controls implements fill.Document
func (d *Document) Controls(ctx context.Context) ([]fill.Element, error) {
	var els []fill.Element
	if _, err := d.eval(ctx, &els, controlsJS, fill.ControlSelector); err != nil {
		return nil, fmt.Errorf("query controls: %w", err)
	}
	return els, nil
}

// Refresh implements fill.Document
func (d *Document) Refresh(ctx context.Context, h fill.Handle) (fill.Element, error) {
	var el fill.Element
	ok, err := d.eval(ctx, &el, refreshJS, int64(h))
	if err != nil {
		return fill.Element{}, fmt.Errorf("refresh handle %d: %w", h, err)
	}
	if !ok {
		return fill.Element{}, fmt.Errorf("handle %d: %w", h, ErrDetached)
	}
	return el, nil
}

// RadioGroup implements fill.Document
func (d *Document) RadioGroup(ctx context.Context, h fill.Handle) ([]fill.Element, error) {
	var group []fill.Element
	ok, err := d.eval(ctx, &group, radioGroupJS, int64(h))
	if err != nil {
		return nil, fmt.Errorf("radio group of handle %d: %w", h, err)
	}
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, ErrDetached)
	}
	return group, nil
}

// SelectOptions implements fill.Document
func (d *Document) SelectOptions(ctx context.Context, h fill.Handle) ([]fill.Option, error) {
	var options []fill.Option
	ok, err := d.eval(ctx, &options, selectOptionsJS, int64(h))
	if err != nil {
		return nil, fmt.Errorf("options of handle %d: %w", h, err)
	}
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, ErrDetached)
	}
	return options, nil
}

// ElementByDOMID implements fill.Document
func (d *Document) ElementByDOMID(ctx context.Context, id string) (fill.Element, bool, error) {
	var el fill.Element
	ok, err := d.eval(ctx, &el, byDOMIDJS, id)
	if err != nil {
		return fill.Element{}, false, fmt.Errorf("lookup #%s: %w", id, err)
	}
	return el, ok, nil
}

// Descendants implements fill.Document
func (d *Document) Descendants(ctx context.Context, h fill.Handle, selector string) ([]fill.Element, error) {
	var els []fill.Element
	ok, err := d.eval(ctx, &els, descendantsJS, int64(h), selector)
	if err != nil {
		return nil, fmt.Errorf("descendants of handle %d: %w", h, err)
	}
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, ErrDetached)
	}
	return els, nil
}

// SubmitButton implements fill.Document
func (d *Document) SubmitButton(ctx context.Context, selector string) (fill.Element, bool, error) {
	var el fill.Element
	ok, err := d.eval(ctx, &el, firstMatchJS, selector)
	if err != nil {
		return fill.Element{}, false, fmt.Errorf("query %q: %w", selector, err)
	}
	return el, ok, nil
}

// ActiveElement implements fill.Document
func (d *Document) ActiveElement(ctx context.Context) (fill.Element, bool, error) {
	var el fill.Element
	ok, err := d.eval(ctx, &el, activeElementJS)
	if err != nil {
		return fill.Element{}, false, fmt.Errorf("active element: %w", err)
	}
	return el, ok, nil
}
