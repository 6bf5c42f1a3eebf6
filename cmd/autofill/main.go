package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/v0xg/autofill/internal/config"
)

var version = "dev"

var (
	configPath string
	verbose    bool
	logger     = zap.NewNop()
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autofill",
		Short: "Fill web forms with plausible fake data, the way a user would",
		Long: `autofill opens a page in Chromium and fills every visible, empty form
control with generated data. Fields are focused, typed into, clicked and
selected with real input events, so validation and framework state react as
they would for a person. Fields revealed by earlier answers are picked up on
the next sweep.

Example:
  autofill fill "https://myapp.com/signup" --headless=false --keep-open`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	rootCmd.AddCommand(newFillCmd(), newPlanCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "autofill", version)
		},
	})
	return rootCmd
}

func initLogger() error {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableStacktrace = true
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l.With(zap.String("run", uuid.NewString()))
	return nil
}

// loadConfig merges the config file, AUTOFILL_* variables and the flags the
// user set explicitly, in increasing priority
func loadConfig(cmd *cobra.Command, apply func(*cobra.Command, *config.Config)) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	switch {
	case cmd.Flags().Changed("verbose"):
		cfg.Verbose = verbose
	case cfg.Verbose && !verbose:
		verbose = true
		if err := initLogger(); err != nil {
			return nil, err
		}
	}
	if apply != nil {
		apply(cmd, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
