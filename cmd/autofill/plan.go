package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/v0xg/autofill/internal/config"
	"github.com/v0xg/autofill/internal/fakedata"
	"github.com/v0xg/autofill/internal/fill"
	"github.com/v0xg/autofill/internal/htmldoc"
)

func newPlanCmd() *cobra.Command {
	var (
		apply  bool
		output string
		locale string
		seed   uint64
	)
	cmd := &cobra.Command{
		Use:   "plan <file|url|->",
		Short: "Show how each form control of a static page would be filled",
		Long: `plan parses the HTML without a browser and lists every form control with
its category and whether it would be filled. Visibility is judged from the
markup only. With --apply the fills are simulated on the markup and the
result is written to --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, func(cmd *cobra.Command, cfg *config.Config) {
				if cmd.Flags().Changed("locale") {
					cfg.Fill.Locale = locale
				}
				if cmd.Flags().Changed("seed") {
					cfg.Fill.Seed = seed
				}
			})
			if err != nil {
				return err
			}

			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			planOut := out
			if apply && output == "" {
				// stdout carries the filled page
				planOut = cmd.ErrOrStderr()
			}
			if err := printPlan(cmd, planOut, doc, cfg); err != nil {
				return err
			}
			if !apply {
				return nil
			}
			return applyPlan(cmd, out, doc, cfg, output)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Simulate the fills on the markup")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the filled HTML here (default: stdout)")
	cmd.Flags().StringVar(&locale, "locale", "", "Locale for dates and times (default: from LANG)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for generated values (0 = random)")
	return cmd
}

// openDocument reads a page from a file, stdin ("-") or an http(s) URL
func openDocument(src string) (*htmldoc.Document, error) {
	var r io.Reader
	switch {
	case src == "-":
		r = os.Stdin
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		resp, err := http.Get(src)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("non-200 response: %d", resp.StatusCode)
		}
		r = resp.Body
	default:
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return htmldoc.Parse(r)
}

func printPlan(cmd *cobra.Command, w io.Writer, doc *htmldoc.Document, cfg *config.Config) error {
	controls, err := doc.Controls(cmd.Context())
	if err != nil {
		return err
	}
	if len(controls) == 0 {
		fmt.Fprintln(w, "No form controls found")
		return nil
	}

	rows := make([][]string, 0, len(controls))
	fillable := make([]bool, 0, len(controls))
	for _, el := range controls {
		category := fill.Classify(el)
		ok, reason := fill.Eligible(el, cfg.Fill.OptOutAttr)
		decision := "fill"
		switch {
		case !ok:
			decision = "skip: " + string(reason)
		case category == fill.CategoryUnsupported:
			decision = "skip: " + string(fill.SkipUnsupported)
			ok = false
		}
		rows = append(rows, []string{strconv.FormatInt(int64(el.Handle), 10), el.String(), category.String(), decision})
		fillable = append(fillable, ok)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("#", "ELEMENT", "CATEGORY", "DECISION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Bold(true)
			case col == 3 && row >= 0 && row < len(fillable) && fillable[row]:
				return style.Inherit(okStyle)
			case col == 3:
				return style.Inherit(dimStyle)
			}
			return style
		})
	fmt.Fprintln(w, t.Render())
	return nil
}

func applyPlan(cmd *cobra.Command, w io.Writer, doc *htmldoc.Document, cfg *config.Config, output string) error {
	engine := fill.NewEngine(doc, htmldoc.NewSimulator(doc), fakedata.New(cfg.Fill.Seed),
		resolveLocale(cfg.Fill.Locale, nil), cfg.EngineConfig(), logger)
	summary := engine.Execute(cmd.Context())

	page, err := doc.HTML()
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if output == "" {
		printSummary(cmd.ErrOrStderr(), summary)
		_, err := io.WriteString(w, page)
		return err
	}

	printSummary(w, summary)
	if err := os.WriteFile(output, []byte(page), 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(w, "✓ Saved to %s\n", output)
	return nil
}
