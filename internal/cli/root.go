// Package cli implements the expstart command line.
package cli

import (
	"fmt"

	"github.com/handiism/expstart/internal/config"
	"github.com/handiism/expstart/internal/scaffold"
	"github.com/handiism/expstart/internal/templates"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App holds the dependencies shared by all commands.
type App struct {
	// ConfigPath is bound to --config.
	ConfigPath string
	Verbose    bool

	// Settings is loaded before any command runs.
	Settings *config.Settings

	// Logger is built from --verbose unless already set.
	Logger *zap.Logger

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	// RunTUI starts the terminal form. Its builds share locks with the
	// commands.
	RunTUI func(settings *config.Settings, locks *scaffold.Locker) error

	// Locks serializes builds of the same root across commands and the
	// form. Created on first use when nil.
	Locks *scaffold.Locker

	// Reveal shows a directory in the file manager.
	Reveal func(path string) error

	ownsLogger bool
}

// NewRootCmd creates the top-level "expstart" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "expstart",
		Short: "Create a dated experiment folder tree from templates",
		Long: `expstart creates <parent>/<YYYY-MM-DD> - <name>/ with the selected
category folders (data, images/{JPG,NEF,PNG,SVG}, notebooks, plots, videos
and up to three custom folders) and provisions notes and template files.

Run without arguments on a terminal to open the interactive form.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.ownsLogger && app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.RunTUI != nil && app.IsInteractive != nil && app.IsInteractive() {
				return app.RunTUI(app.Settings, app.Locks)
			}
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", config.DefaultPath(), "config file (JSON or YAML)")
	root.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "log every created folder and file")

	root.AddCommand(
		newNewCmd(app),
		newIDCmd(app),
		newBatchCmd(app),
		newTemplatesCmd(app),
		newConfigCmd(app),
		newTUICmd(app),
	)

	return root
}

func (app *App) init() error {
	if app.Settings == nil {
		settings, err := config.Load(app.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		app.Settings = settings
	}

	if app.Logger == nil {
		cfg := zap.NewProductionConfig()
		if app.Verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		app.Logger = logger
		app.ownsLogger = true
	}

	if app.Locks == nil {
		app.Locks = scaffold.NewLocker()
	}
	return nil
}

// templateSet resolves the template directory, preferring override.
// When nothing is found the first candidate is used so each copied
// artifact reports its template as missing.
func (app *App) templateSet(override string) templates.Set {
	configured := app.Settings.TemplatesDir
	if override != "" {
		configured = override
	}
	candidates := templates.Candidates(configured)
	set, err := templates.Locate(candidates...)
	if err != nil {
		app.Logger.Warn("template directory not found", zap.Strings("searched", candidates))
		return templates.Set{Dir: candidates[0]}
	}
	return set
}

// newBuilder wires a Builder whose events go to the logger.
func (app *App) newBuilder(set templates.Set, reveal bool) *scaffold.Builder {
	opts := []scaffold.Option{scaffold.WithLocker(app.Locks)}
	if reveal && app.Reveal != nil {
		opts = append(opts, scaffold.WithReveal(app.Reveal))
	}
	return scaffold.NewBuilder(set, logEvents(app.Logger), opts...)
}

// logEvents maps builder progress levels onto log levels.
func logEvents(logger *zap.Logger) func(scaffold.Event) {
	return func(e scaffold.Event) {
		fields := []zap.Field{zap.String("path", e.Path)}
		switch e.Level {
		case scaffold.LevelVerbose:
			logger.Debug(e.Message, fields...)
		case scaffold.LevelWarning:
			logger.Warn(e.Message, fields...)
		case scaffold.LevelError:
			logger.Error(e.Message, fields...)
		default:
			logger.Info(e.Message, fields...)
		}
	}
}
