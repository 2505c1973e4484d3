package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/keycalc/internal/app"
	"github.com/dshills/keycalc/internal/config"
	"github.com/dshills/keycalc/internal/renderer/backend"
)

// globalOptions are the persistent flags. Set flags win over the
// configuration file and the environment, also across live reloads.
type globalOptions struct {
	configPath string
	locale     string
	dataDir    string
	logLevel   string
	policy     string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "keycalc",
		Short: "keycalc - a keypad calculator for the terminal",
		Long: `keycalc is a calculator that checks every keystroke, shows the result
while you type and keeps a history of past expressions across runs.

Keys:
  Enter or =        evaluate
  Backspace         delete (clears a shown result)
  Delete, Ctrl-U    clear
  Up, Down          walk the history
  Esc, Ctrl-C       quit`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	pf.StringVar(&opts.locale, "locale", "", "Locale for digits, separators and messages (e.g. de-DE)")
	pf.StringVar(&opts.dataDir, "data-dir", "", "Directory for the history and log files")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.policy, "policy", "", "Input filter policy (editable, builder)")

	root.AddCommand(newEvalCmd(opts), newHistoryCmd(opts), newVersionCmd())
	return root
}

// apply overrides cfg with the flags that were given.
func (o *globalOptions) apply(cfg *config.Config) {
	if o.locale != "" {
		cfg.Calculator.Locale = o.locale
	}
	if o.dataDir != "" {
		cfg.Paths.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.policy != "" {
		cfg.Calculator.FilterPolicy = o.policy
	}
}

// loadConfig loads the configuration file, the environment and the flags.
// It also returns the file path used.
func (o *globalOptions) loadConfig() (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading configuration: %w", err)
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func runInteractive(opts *globalOptions) error {
	cfg, path, err := opts.loadConfig()
	if err != nil {
		return err
	}

	logger, closer, err := app.OpenLogFile(cfg.LogPath(), app.ParseLogLevel(cfg.Logging.Level),
		map[string]any{"version": version})
	if err != nil {
		return err
	}
	defer closer.Close()

	application, err := app.New(cfg, app.Options{
		ConfigPath:  path,
		WatchConfig: true,
		Override:    opts.apply,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Close()

	term, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := application.SetBackend(term); err != nil {
		return fmt.Errorf("failed to set backend: %w", err)
	}

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		if _, ok := <-signals; ok {
			application.Shutdown()
		}
	}()

	if err := application.Run(); err != nil && !errors.Is(err, app.ErrQuit) {
		return err
	}
	return nil
}

// cliLogger logs warnings and errors to the command's stderr.
func cliLogger(cmd *cobra.Command, cfg *config.Config) *app.Logger {
	return app.NewLogger(app.LoggerConfig{
		Level:  max(app.ParseLogLevel(cfg.Logging.Level), app.LogLevelWarn),
		Output: cmd.ErrOrStderr(),
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "keycalc %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}
