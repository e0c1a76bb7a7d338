// Package main provides the CLI entrypoint for keyrush.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyrush/internal/config"
	"github.com/verte-zerg/keyrush/internal/generator"
	"github.com/verte-zerg/keyrush/internal/logging"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/quote"
	"github.com/verte-zerg/keyrush/internal/session"
	"github.com/verte-zerg/keyrush/internal/stats"
	"github.com/verte-zerg/keyrush/internal/statsui"
	"github.com/verte-zerg/keyrush/internal/store"
	"github.com/verte-zerg/keyrush/internal/tui"
	"github.com/verte-zerg/keyrush/internal/wordlist"
)

const (
	defaultCurveWindow = 5
	defaultServerAddr  = ":8080"
	prefetchTimeout    = 15 * time.Second
)

var (
	practiceMode     string
	practiceWordList string

	statsCategory    string
	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keyrush",
		Short:         "Terminal typing speed test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", "", "test mode: 30, 60, 90, 15s, 30s, 60s or quote (default: last used)")
	rootCmd.Flags().StringVar(&practiceWordList, "wordlist", "", "custom word list, one word per line")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyStringConfig(cmd, "wordlist", &practiceWordList, fileCfg.Practice.WordList)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	mode, err := resolveMode(cmd.Context(), st, practiceMode, logger)
	if err != nil {
		return err
	}
	cfg := model.Config{Mode: mode, WordListPath: practiceWordList}

	words, err := wordSource(cfg.WordListPath)
	if err != nil {
		return err
	}
	quotes := newQuoteClient(fileCfg, logger)
	if cfg.Mode.Category() != model.CategoryQuote {
		go prefetchQuote(quotes, logger)
	}

	logger.Info("starting practice", "mode", cfg.Mode.ID(), "wordlist", cfg.WordListPath)
	opts := session.Options{
		Mode:    cfg.Mode,
		Words:   words,
		Quotes:  quotes,
		History: st,
	}
	return tui.Run(opts, st, logger)
}

// resolveMode picks the explicit mode, then the last selected one, then the default.
func resolveMode(ctx context.Context, st *store.Store, explicit string, logger *slog.Logger) (model.Mode, error) {
	if explicit != "" {
		mode, err := model.ParseMode(explicit)
		if err != nil {
			return model.Mode{}, fmt.Errorf("invalid --mode: %w", err)
		}
		return mode, nil
	}
	mode, ok, err := st.SelectedMode(ctx)
	if err != nil {
		logger.Warn("failed to load selected mode", "err", err)
	}
	if ok {
		return mode, nil
	}
	return model.DefaultMode(model.CategoryTime), nil
}

func wordSource(path string) (*generator.Generator, error) {
	if path == "" {
		return generator.New(nil), nil
	}
	words, err := wordlist.LoadWords(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list %s: %w", path, err)
	}
	return generator.New(words), nil
}

func newQuoteClient(cfg config.FileConfig, logger *slog.Logger) *quote.Client {
	opts := quote.Options{
		Retries: cfg.Quotes.Retries,
		Logger:  logger,
	}
	if cfg.Quotes.BaseURL != nil {
		opts.BaseURL = *cfg.Quotes.BaseURL
	}
	if cfg.Quotes.Timeout != nil {
		// Validated on load.
		opts.Timeout, _ = time.ParseDuration(*cfg.Quotes.Timeout)
	}
	return quote.NewClient(opts)
}

func prefetchQuote(quotes *quote.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), prefetchTimeout)
	defer cancel()
	if err := quotes.Prefetch(ctx); err != nil {
		logger.Debug("quote prefetch failed", "err", err)
	}
}

func loadSettings() (config.FileConfig, error) {
	cfg, err := config.Load(config.DefaultConfigPath(), config.DefaultDotEnvPaths()...)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openLogger logs to the log file for full-screen commands and to stderr otherwise.
func openLogger(fullScreen bool) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(os.Getenv(config.EnvLogLevel))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s: %w", config.EnvLogLevel, err)
	}
	if !fullScreen {
		return logging.New(os.Stderr, level), func() {}, nil
	}
	logger, closer, err := logging.OpenFile(config.DefaultLogPath(), level)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() {
		if cerr := closer.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return config.Template(
		model.DefaultMode(model.CategoryTime).ID(),
		quote.DefaultBaseURL,
		quote.DefaultTimeout,
		quote.DefaultRetries,
		defaultServerAddr,
	)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse results and trends",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "category filter: time, words or quote")
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter, e.g. 30 or 15s")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N results")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print the report instead of opening the browser")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(); err != nil {
		return err
	}
	cfg, err := buildStatsConfig(statsCategory, statsMode, statsSince, statsLast)
	if err != nil {
		return err
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	cfg.CurveWindow = statsCurveWindow

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}
		var buf bytes.Buffer
		if err := report.Render(&buf, cfg.CurveWindow); err != nil {
			return fmt.Errorf("failed to render stats: %w", err)
		}
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func buildStatsConfig(category, mode, since string, last int) (model.StatsConfig, error) {
	var cfg model.StatsConfig
	if category != "" {
		parsed, err := model.ParseCategory(category)
		if err != nil {
			return cfg, fmt.Errorf("invalid --category: %w", err)
		}
		cfg.Category = parsed
	}
	if mode != "" {
		parsed, err := model.ParseMode(mode)
		if err != nil {
			return cfg, fmt.Errorf("invalid --mode: %w", err)
		}
		cfg.Mode = parsed.ID()
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	cfg.Last = last
	return cfg, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
