// Package main provides the CLI entrypoint for greetcard.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/greetcard/internal/card"
	"github.com/verte-zerg/greetcard/internal/config"
	"github.com/verte-zerg/greetcard/internal/effects"
	"github.com/verte-zerg/greetcard/internal/logging"
	"github.com/verte-zerg/greetcard/internal/model"
	"github.com/verte-zerg/greetcard/internal/pages"
	"github.com/verte-zerg/greetcard/internal/playback"
	"github.com/verte-zerg/greetcard/internal/prefs"
	"github.com/verte-zerg/greetcard/internal/store"
	"github.com/verte-zerg/greetcard/internal/tui"
)

const (
	defaultConfetti = effects.DefaultCount
	defaultDelay    = card.DefaultTransitionDelay
)

var (
	cardPages    string
	cardConfetti int
	cardDelay    time.Duration
	cardNoMusic  bool
	verbose      bool

	fileCfg config.FileConfig
	logger  *zap.Logger
)

func main() {
	if err := run(newRootCmd()); err != nil {
		os.Exit(1)
	}
}

// run executes rootCmd and flushes the log whether or not the command failed.
func run(rootCmd *cobra.Command) error {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "greetcard",
		Short:             "Terminal greeting card",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		RunE:              runCardCmd,
	}

	rootCmd.Flags().StringVar(&cardPages, "pages", "", "page file (default: built-in card or "+config.DefaultPagesPath()+")")
	rootCmd.Flags().IntVar(&cardConfetti, "confetti", defaultConfetti, "confetti particles in the finale")
	rootCmd.Flags().DurationVar(&cardDelay, "delay", defaultDelay, "screen transition delay")
	rootCmd.Flags().BoolVar(&cardNoMusic, "no-music", false, "do not play background music")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newImageCmd())
	rootCmd.AddCommand(newMusicCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	fileCfg, err = config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyBoolConfig(cmd, "verbose", &verbose, fileCfg.Card.Verbose)
	return setupLogger(cmd, nil)
}

// setupLogger builds the logger without reading the config file.
func setupLogger(_ *cobra.Command, _ []string) error {
	var err error
	logger, err = logging.New(config.DefaultLogPath(), verbose)
	return err
}

func runCardCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "pages", &cardPages, fileCfg.Card.Pages)
	applyIntConfig(cmd, "confetti", &cardConfetti, fileCfg.Card.Confetti)
	applyBoolConfig(cmd, "no-music", &cardNoMusic, fileCfg.Card.NoMusic)
	if err := applyDurationConfig(cmd, "delay", &cardDelay, fileCfg.Card.TransitionDelay); err != nil {
		return err
	}

	cfg := model.Config{
		PagesPath:       cardPages,
		Confetti:        cardConfetti,
		TransitionDelay: cardDelay,
		NoMusic:         cardNoMusic,
		Verbose:         verbose,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("greetcard needs an interactive terminal")
	}

	cardContent, err := loadPages(cfg.PagesPath)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	orch, err := newOrchestrator(st, cardContent, cfg)
	if err != nil {
		return err
	}
	orch.Restore(context.Background())
	defer orch.Close()

	program := tea.NewProgram(tui.NewModel(orch), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newOrchestrator(st *store.Store, content []model.Page, cfg model.Config) (*card.Orchestrator, error) {
	music := playback.NewController(playback.NewBeepPlayer(), logger.Named("playback"))
	return card.New(content, music, effects.New(), prefs.New(st), card.Options{
		TransitionDelay: cfg.TransitionDelay,
		Confetti:        cfg.Confetti,
		NoMusic:         cfg.NoMusic,
		Log:             logger.Named("card"),
	})
}

func loadPages(path string) ([]model.Page, error) {
	explicit := path != ""
	if !explicit {
		path = config.DefaultPagesPath()
	}
	loaded, err := pages.Load(path)
	if err == nil {
		return loaded, nil
	}
	if !explicit && os.IsNotExist(err) {
		return pages.Default(), nil
	}
	return nil, fmt.Errorf("failed to load pages from %s: %w", path, err)
}

func newImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <ref>",
		Short: "Set the card image (path or URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetRefCmd(cmd, args, "image", (*card.Orchestrator).UploadCardImage)
		},
	}
}

func newMusicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "music <ref>",
		Short: "Set the background music (.mp3 or .wav path or URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetRefCmd(cmd, args, "music", (*card.Orchestrator).SetBackgroundMusic)
		},
	}
}

type setRefFunc func(o *card.Orchestrator, ctx context.Context, ref string) error

func runSetRefCmd(cmd *cobra.Command, args []string, what string, set setRefFunc) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	// The card is never shown here; it only routes the reference to storage.
	orch, err := newOrchestrator(st, pages.Default(), model.Config{NoMusic: true})
	if err != nil {
		return err
	}
	if err := set(orch, cmd.Context(), ref); err != nil {
		if errors.Is(err, prefs.ErrEmptyValue) {
			return fmt.Errorf("please provide the %s reference: %w", what, err)
		}
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s set successfully\n", capitalize(what)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPrefsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "Show stored card image and music",
		Args:  cobra.NoArgs,
		RunE:  runPrefsCmd,
	}
}

func runPrefsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	entries, err := st.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list preferences: %w", err)
	}
	if len(entries) == 0 {
		logErrln("No preferences stored. Set them with: greetcard image <ref> / greetcard music <ref>")
		return nil
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  (%s)\n", entry.Key, entry.Value, entry.UpdatedAt.Local().Format(time.DateTime)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		// The file may not decode yet; this command is how it gets fixed.
		PersistentPreRunE: setupLogger,
		RunE:              runConfigCmd,
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

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	parsed, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = parsed
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# greetcard configuration
# Uncomment a value to enable it. CLI flags override config values.

[card]
# pages = %q            # Page file, pages separated by a "---" line
# confetti = %d              # Confetti particles in the finale
# transition-delay = %q    # Screen transition delay
# no-music = false           # Do not play background music
# verbose = false            # Debug logging to %s
`,
		config.DefaultPagesPath(),
		defaultConfetti,
		defaultDelay.String(),
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Confetti <= 0 {
		return fmt.Errorf("--confetti must be > 0")
	}
	if cfg.TransitionDelay <= 0 {
		return fmt.Errorf("--delay must be > 0")
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
