package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/store"
	"github.com/nhle/mailshelf/internal/theme"
)

// env holds the state shared by every subcommand.
type env struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg     *model.AppConfig
	logger  *slog.Logger
	cleanup func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := &env{}
	rootCmd := newRootCmd(e)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mailshelf",
		Short:         "Import .eml files into a local store and browse them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, e)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.cleanup != nil {
				return e.cleanup()
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	flags.StringVar(&e.dbPath, "db", "", "path to the SQLite database (overrides store.path)")
	flags.StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log.level)")

	rootCmd.AddCommand(
		newBrowseCmd(e),
		newImportCmd(e),
		newSearchCmd(e),
		newShowCmd(e),
		newExportCmd(e),
		newDeleteCmd(e),
		newHistoryCmd(e),
		newConfigCmd(e),
	)
	return rootCmd
}

// load reads the config, applies flag overrides and sets up logging. The
// terminal UI owns the screen, so it logs to the configured file instead of
// stderr.
func (e *env) load(logToFile bool) error {
	cfg, err := model.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	if e.dbPath != "" {
		cfg.Store.Path = e.dbPath
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	e.cfg = cfg
	if err := theme.Use(cfg.Display.Theme); err != nil {
		return err
	}

	logFile := ""
	if logToFile {
		logFile = cfg.Log.File
	}
	logger, cleanup, err := setupLogger(cfg.Log.Level, logFile)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	slog.SetDefault(logger)
	e.logger = logger
	e.cleanup = cleanup
	return nil
}

// openStore opens the database, creating its directory if needed.
func (e *env) openStore() (*store.SQLiteStore, error) {
	path := e.cfg.Store.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	e.logger.Debug("store opened", "path", path)
	return s, nil
}

func setupLogger(levelName, logFile string) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch strings.ToLower(levelName) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, cleanup, err
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(slog.NewTextHandler(file, opts)), cleanup, nil
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts)), cleanup, nil
}

// interactive reports whether stdin is a terminal that can answer prompts.
func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// closeStore closes s and logs a failure.
func (e *env) closeStore(s io.Closer) {
	if err := s.Close(); err != nil {
		e.logger.Warn("closing store", "error", err)
	}
}
