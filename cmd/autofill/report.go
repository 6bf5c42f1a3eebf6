package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/v0xg/autofill/internal/config"
	"github.com/v0xg/autofill/internal/executor"
	"github.com/v0xg/autofill/internal/fill"
	"github.com/v0xg/autofill/internal/gifgen"
	"github.com/v0xg/autofill/internal/overlay"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func outcomeStyle(o fill.Outcome) lipgloss.Style {
	switch o {
	case fill.OutcomeFilled:
		return okStyle
	case fill.OutcomeFailed:
		return failStyle
	default:
		return dimStyle
	}
}

// printResult prints one line per examined element
func printResult(w io.Writer, r fill.Result) {
	detail := r.Category.String()
	switch r.Outcome {
	case fill.OutcomeSkipped:
		detail = string(r.Reason)
	case fill.OutcomeFailed:
		detail = r.Err.Error()
	}
	fmt.Fprintf(w, "  [sweep %d] %s %s (%s)\n",
		r.Sweep, outcomeStyle(r.Outcome).Render(fmt.Sprintf("%-7s", r.Outcome)), r.Element, detail)
}

// printSummary prints the totals and every failure
func printSummary(w io.Writer, s *fill.Summary) {
	fmt.Fprintf(w, "%s %d filled, %d skipped, %d failed in %d sweep(s) (%s)\n",
		okStyle.Render("✓"), s.Filled, s.Skipped, s.Failed, s.Sweeps, s.Duration.Round(time.Millisecond))
	for _, msg := range s.Failures() {
		fmt.Fprintf(w, "  %s %s\n", failStyle.Render("✗"), msg)
	}
	if s.Err != nil {
		fmt.Fprintf(w, "%s discovery stopped: %v\n", failStyle.Render("⚠"), s.Err)
	}
}

// writeRecording annotates the captured frames and encodes them as a GIF
func writeRecording(w io.Writer, rc config.RecordConfig, frames []executor.Frame, s *fill.Summary) error {
	if len(frames) == 0 {
		fmt.Fprintln(w, "⚠ Nothing was recorded")
		return nil
	}

	outcome := func(h fill.Handle) (fill.Outcome, bool) {
		r, ok := s.Lookup(h)
		return r.Outcome, ok
	}
	images := overlay.Annotate(frames, outcome, overlay.Options{NoCursor: rc.NoCursor})

	fmt.Fprintf(w, "→ Generating GIF (%d frames)... ", len(images))
	size, err := gifgen.Generate(images, rc.Output, gifgen.Options{
		FPS:      rc.FPS,
		MaxWidth: rc.MaxWidth,
		HoldLast: rc.FPS * 2,
	})
	if err != nil {
		fmt.Fprintln(w, "failed")
		return fmt.Errorf("GIF generation failed: %w", err)
	}
	fmt.Fprintln(w, "done")
	fmt.Fprintf(w, "✓ Saved to %s (%.1f MB)\n", rc.Output, float64(size)/(1024*1024))
	return nil
}
