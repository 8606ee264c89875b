package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayushmankoley/GrowMint/internal/ai"
	cfgpkg "github.com/ayushmankoley/GrowMint/internal/config"
	"github.com/ayushmankoley/GrowMint/internal/conversation"
	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/logging"
	"github.com/ayushmankoley/GrowMint/internal/store"
	"github.com/ayushmankoley/GrowMint/internal/tools"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagLogLevel string
	flagUser     string
	flagProvider string
	flagModel    string
	// Timeout flags (override config if set)
	flagHTTPTimeoutSec    int
	flagAttemptTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
	// cfgErr is reported by commands that need the config.
	cfgErr error

	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "growmint",
	Short: "GrowMint: context-grounded sales and marketing content for your projects",
	Long: `GrowMint keeps per-project context (notes, websites, documents) and turns it into
grounded sales and marketing content: chat with an assistant about a project, or run one-shot
generators such as cold emails, pitch decks and campaign briefs.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main(). Interrupts cancel the
// running command's context instead of killing the process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", explain(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.growmint/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "act as this user ID (overrides config user_id)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "model provider: gemini|openrouter|ollama (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagAttemptTimeoutSec, "attempt-timeout", 0, "per-attempt generation timeout in seconds (overrides config)")
}

func loadConfig() {
	cfg, cfgErr = nil, nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config commands can still repair the file.
		cfgErr = err
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("user") && flagUser != "" {
		cfg.UserID = flagUser
	}
	if f.Changed("provider") && flagProvider != "" {
		cfg.Provider = ai.NormalizeProvider(flagProvider)
	}
	if f.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("attempt-timeout") && flagAttemptTimeoutSec > 0 {
		cfg.AttemptTimeoutSec = flagAttemptTimeoutSec
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logger = logging.Console(os.Stderr, cfg.LogLevel, os.Getenv("NO_COLOR") != "")
	f.Visit(func(fl *pflag.Flag) {
		logger.Debug("flag override", "flag", fl.Name, "value", fl.Value.String())
	})

	if cfg.ModelsCatalog != "" {
		m, err := ai.LoadCatalogFromJSON(cfg.ModelsCatalog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: models catalog not loaded: %v\n", err)
		} else {
			ai.MergeCatalog(m)
		}
	}
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	if cfgErr != nil {
		return nil, cfgErr
	}
	return nil, errors.New("no configuration loaded")
}

// openStore opens the configured database. Callers close it.
func openStore() (*store.SQLiteStore, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return store.NewSQLite(c.DBPath, store.WithLogger(logger))
}

// newGenerator builds the two-tier generation client from config. Tests swap it.
var newGenerator = func(ctx context.Context) (generation.Generator, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return generation.New(ctx, c.Generation(), logger)
}

// explain turns domain errors into actionable CLI messages.
func explain(err error) string {
	var (
		ve    *domain.ValidationError
		reply *conversation.ReplyError
		fe    *generation.FallbackError
	)
	switch {
	case errors.As(err, &ve):
		return "invalid input: " + ve.Error()
	case errors.Is(err, store.ErrNotFound):
		return err.Error() + " (check the ID with the matching 'list' command)"
	case errors.Is(err, conversation.ErrBusy), errors.Is(err, tools.ErrBusy):
		return "busy: " + err.Error()
	case errors.As(err, &reply):
		return fmt.Sprintf("%v\n  hint: %s", err, ai.Describe(reply.Err))
	case errors.As(err, &fe), errors.Is(err, generation.ErrNoFallback), errors.Is(err, ai.ErrMissingAPIKey):
		return fmt.Sprintf("%v\n  hint: %s", err, ai.Describe(err))
	case errors.Is(err, context.Canceled):
		return "cancelled: " + err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out: " + err.Error() + " (raise attempt_timeout_sec or --attempt-timeout)"
	}
	return err.Error()
}

// out is where commands print; tests swap it.
var out io.Writer = os.Stdout

func printf(format string, args ...any) { fmt.Fprintf(out, format, args...) }

func warn(msgs ...string) {
	for _, m := range msgs {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", m)
	}
}

func userID() string {
	if cfg == nil {
		return ""
	}
	return cfg.UserID
}
