package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/autofill/internal/config"
	"github.com/v0xg/autofill/internal/crawler"
	"github.com/v0xg/autofill/internal/executor"
	"github.com/v0xg/autofill/internal/fakedata"
	"github.com/v0xg/autofill/internal/fill"
)

type fillFlags struct {
	headless       bool
	width          int
	height         int
	profile        string
	browserURL     string
	timeout        time.Duration
	settle         time.Duration
	keepOpen       bool
	sweeps         int
	comboTimeout   time.Duration
	locale         string
	seed           uint64
	optOutAttr     string
	submitSelector string
	record         string
	fps            int
	noCursor       bool
}

func newFillCmd() *cobra.Command {
	var f fillFlags
	cmd := &cobra.Command{
		Use:   "fill <url>",
		Short: "Open a page and fill its form controls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f.apply)
			if err != nil {
				return err
			}
			return runFill(cmd, cfg, args[0])
		},
	}

	def := config.Default()
	flags := cmd.Flags()
	flags.BoolVar(&f.headless, "headless", def.Browser.Headless, "Run the browser without a window")
	flags.IntVar(&f.width, "width", def.Browser.Width, "Viewport width")
	flags.IntVar(&f.height, "height", def.Browser.Height, "Viewport height")
	flags.StringVar(&f.profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	flags.StringVar(&f.browserURL, "browser-url", "", "Attach to a running browser (e.g. http://127.0.0.1:9222) instead of launching one")
	flags.DurationVar(&f.timeout, "timeout", def.Browser.Timeout, "Page load timeout")
	flags.DurationVar(&f.settle, "settle", def.Browser.SettleDelay, "Network idle time awaited after each interaction")
	flags.BoolVar(&f.keepOpen, "keep-open", false, "Keep the browser open until interrupted")
	flags.IntVar(&f.sweeps, "sweeps", def.Fill.Sweeps, "Maximum discovery sweeps for fields revealed by earlier fills")
	flags.DurationVar(&f.comboTimeout, "combobox-timeout", def.Fill.ComboboxTimeout, "How long to wait for a combobox to open")
	flags.StringVar(&f.locale, "locale", "", "Locale for dates and times (default: from LANG)")
	flags.Uint64Var(&f.seed, "seed", 0, "Seed for generated values (0 = random)")
	flags.StringVar(&f.optOutAttr, "opt-out-attr", def.Fill.OptOutAttr, "Data attribute that excludes an element")
	flags.StringVar(&f.submitSelector, "submit-selector", def.Fill.SubmitSelector, "Button focused after filling")
	flags.StringVarP(&f.record, "record", "o", "", "Record the session to this GIF file")
	flags.IntVar(&f.fps, "fps", def.Record.FPS, "Frames per second of the recording")
	flags.BoolVar(&f.noCursor, "no-cursor", false, "Do not draw the cursor in the recording")
	return cmd
}

// apply copies the flags the user set onto cfg
func (f *fillFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("headless") {
		cfg.Browser.Headless = f.headless
	}
	if changed("width") {
		cfg.Browser.Width = f.width
	}
	if changed("height") {
		cfg.Browser.Height = f.height
	}
	if changed("profile") {
		cfg.Browser.Profile = f.profile
	}
	if changed("browser-url") {
		cfg.Browser.URL = f.browserURL
	}
	if changed("timeout") {
		cfg.Browser.Timeout = f.timeout
	}
	if changed("settle") {
		cfg.Browser.SettleDelay = f.settle
	}
	if changed("keep-open") {
		cfg.Browser.KeepOpen = f.keepOpen
	}
	if changed("sweeps") {
		cfg.Fill.Sweeps = f.sweeps
	}
	if changed("combobox-timeout") {
		cfg.Fill.ComboboxTimeout = f.comboTimeout
	}
	if changed("locale") {
		cfg.Fill.Locale = f.locale
	}
	if changed("seed") {
		cfg.Fill.Seed = f.seed
	}
	if changed("opt-out-attr") {
		cfg.Fill.OptOutAttr = f.optOutAttr
	}
	if changed("submit-selector") {
		cfg.Fill.SubmitSelector = f.submitSelector
	}
	if changed("record") {
		cfg.Record.Output = f.record
	}
	if changed("fps") {
		cfg.Record.FPS = f.fps
	}
	if changed("no-cursor") {
		cfg.Record.NoCursor = f.noCursor
	}
}

func runFill(cmd *cobra.Command, cfg *config.Config, url string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	logger.Debug("starting autofill",
		zap.String("url", url),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Int("sweeps", cfg.Fill.Sweeps))

	fmt.Fprintf(out, "→ Opening %s... ", url)
	browser, err := crawler.Launch(ctx, url, crawler.Options{
		Width:      cfg.Browser.Width,
		Height:     cfg.Browser.Height,
		Timeout:    cfg.Browser.Timeout,
		Headless:   cfg.Browser.Headless,
		ProfileDir: cfg.Browser.Profile,
		ControlURL: cfg.Browser.URL,
		Locale:     cfg.Fill.Locale,
	})
	if err != nil {
		fmt.Fprintln(out, "failed")
		return fmt.Errorf("open page: %w", err)
	}
	defer browser.Close()
	fmt.Fprintln(out, "done")

	exec := executor.New(browser, executor.Options{
		SettleDelay: cfg.Browser.SettleDelay,
		Record:      cfg.Record.Output != "",
	}, logger)

	locale := resolveLocale(cfg.Fill.Locale, func() (string, error) {
		return browser.Language(ctx)
	})
	engineCfg := cfg.EngineConfig()
	if verbose {
		engineCfg.OnResult = func(r fill.Result) { printResult(out, r) }
	}
	engine := fill.NewEngine(browser.Document(), exec, fakedata.New(cfg.Fill.Seed), locale, engineCfg, logger)

	fmt.Fprintf(out, "→ Filling form fields (locale %s)...\n", locale)
	summary := engine.Execute(ctx)
	printSummary(out, summary)

	if cfg.Record.Output != "" {
		if err := writeRecording(out, cfg.Record, exec.Frames(), summary); err != nil {
			return err
		}
	}

	if cfg.Browser.KeepOpen && ctx.Err() == nil {
		fmt.Fprintln(out, "→ Browser left open, press Ctrl+C to exit")
		<-ctx.Done()
	}

	if summary.Err != nil && !errors.Is(summary.Err, context.Canceled) {
		return summary.Err
	}
	return nil
}

// resolveLocale picks the configured locale, then the page's own language,
// then the process environment. pageLanguage may be nil.
func resolveLocale(tag string, pageLanguage func() (string, error)) fakedata.Locale {
	if tag != "" {
		return fakedata.NewLocale(tag)
	}
	if pageLanguage != nil {
		lang, err := pageLanguage()
		if err == nil && lang != "" {
			return fakedata.NewLocale(lang)
		}
		logger.Debug("page language unavailable, using environment locale", zap.Error(err))
	}
	return fakedata.SystemLocale()
}
