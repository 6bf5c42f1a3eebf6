package fill

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxSweeps bounds how many reveal levels one execution follows
const DefaultMaxSweeps = 5

// DefaultSubmitSelector finds the button focused once filling is done
const DefaultSubmitSelector = "button[type=submit], input[type=submit]"

// completionTimeout bounds the focus step, which also runs after cancellation
const completionTimeout = 5 * time.Second

// Config controls one execution
type Config struct {
	MaxSweeps      int
	OptOutAttr     string
	SubmitSelector string
	Filler         FillerOptions
	// OnResult, when set, observes every examined element as it is decided
	OnResult func(Result)
}

func (c Config) withDefaults() Config {
	if c.MaxSweeps <= 0 {
		c.MaxSweeps = DefaultMaxSweeps
	}
	if c.OptOutAttr == "" {
		c.OptOutAttr = DefaultOptOutAttr
	}
	if c.SubmitSelector == "" {
		c.SubmitSelector = DefaultSubmitSelector
	}
	return c
}

// Engine runs the discovery loop over a document
type Engine struct {
	doc    Document
	in     Interactor
	filler *Filler
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger discards all output.
func NewEngine(doc Document, in Interactor, gen Generator, locale Locale, cfg Config, logger *zap.Logger) *Engine {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		doc:    doc,
		in:     in,
		filler: NewFiller(doc, in, gen, locale, cfg.Filler),
		cfg:    cfg,
		logger: logger,
	}
}

// Execute fills the page, then leaves focus on the submit button so the
// form is ready for review or submission. The focus step still runs when
// ctx is canceled.
func (e *Engine) Execute(ctx context.Context) *Summary {
	summary := e.Run(ctx)

	focusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completionTimeout)
	defer cancel()
	e.focusSubmit(focusCtx)
	return summary
}

// Run sweeps the document until no new controls appear or the sweep limit
// is reached. Elements are marked seen before they are filled, so a failed
// element is never retried.
func (e *Engine) Run(ctx context.Context) *Summary {
	started := time.Now()
	summary := &Summary{}
	seen := make(map[Handle]struct{})

	for summary.Sweeps < e.cfg.MaxSweeps {
		if err := ctx.Err(); err != nil {
			summary.Err = err
			break
		}

		controls, err := e.doc.Controls(ctx)
		if err != nil {
			summary.Err = fmt.Errorf("discover controls: %w", err)
			e.logger.Warn("discovery failed", zap.Int("sweep", summary.Sweeps+1), zap.Error(err))
			break
		}

		var fresh []Element
		for _, el := range controls {
			if _, ok := seen[el.Handle]; !ok {
				fresh = append(fresh, el)
			}
		}
		if len(fresh) == 0 {
			e.logger.Debug("fixed point reached", zap.Int("sweeps", summary.Sweeps))
			break
		}

		summary.Sweeps++
		e.logger.Debug("sweep",
			zap.Int("sweep", summary.Sweeps),
			zap.Int("controls", len(controls)),
			zap.Int("new", len(fresh)))

		for _, el := range fresh {
			seen[el.Handle] = struct{}{}
			if ctx.Err() != nil {
				break
			}
			res := e.process(ctx, el)
			res.Sweep = summary.Sweeps
			summary.add(res)
			if e.cfg.OnResult != nil {
				e.cfg.OnResult(res)
			}
		}
	}

	summary.Duration = time.Since(started)
	return summary
}

// process decides and fills one element. Failures stay local to the element.
func (e *Engine) process(ctx context.Context, el Element) (res Result) {
	res = Result{Element: el, Category: Classify(el)}

	if ok, reason := Eligible(el, e.cfg.OptOutAttr); !ok {
		res.Outcome, res.Reason = OutcomeSkipped, reason
		e.logger.Debug("skip", zap.Stringer("element", el), zap.String("reason", string(reason)))
		return res
	}
	if res.Category == CategoryUnsupported {
		res.Outcome, res.Reason = OutcomeSkipped, SkipUnsupported
		e.logger.Debug("skip", zap.Stringer("element", el), zap.String("reason", string(SkipUnsupported)))
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("panic while filling: %v", r)
			e.logger.Warn("fill failed", zap.Stringer("element", el), zap.Error(res.Err))
		}
	}()

	reason, err := e.filler.fillCategory(ctx, res.Category, el)
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		e.logger.Warn("fill failed",
			zap.Stringer("element", el),
			zap.Stringer("category", res.Category),
			zap.Error(err))
		return res
	}
	if reason != SkipNone {
		res.Outcome, res.Reason = OutcomeSkipped, reason
		e.logger.Debug("left alone", zap.Stringer("element", el), zap.String("reason", string(reason)))
		return res
	}

	res.Outcome = OutcomeFilled
	e.logger.Debug("filled", zap.Stringer("element", el), zap.Stringer("category", res.Category))
	return res
}

func (e *Engine) focusSubmit(ctx context.Context) {
	if active, ok, err := e.doc.ActiveElement(ctx); err != nil {
		e.logger.Debug("active element lookup failed", zap.Error(err))
	} else if ok {
		if err := e.in.Blur(ctx, active.Handle); err != nil {
			e.logger.Debug("blur failed", zap.Stringer("element", active), zap.Error(err))
		}
	}

	submit, ok, err := e.doc.SubmitButton(ctx, e.cfg.SubmitSelector)
	if err != nil {
		e.logger.Debug("submit lookup failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := e.in.Focus(ctx, submit.Handle); err != nil {
		e.logger.Debug("focus submit failed", zap.Stringer("element", submit), zap.Error(err))
	}
}
