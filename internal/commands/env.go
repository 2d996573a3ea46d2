package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/loanlens/loanlens/internal/config"
	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/normalize"
	"github.com/loanlens/loanlens/internal/source"
)

// env is the resolved configuration of one command invocation.
type env struct {
	cfg  *config.Config
	root string // directory holding the config file; relative paths resolve against it
	asOf time.Time
}

// loadEnv reads the config file, applies flag overrides and validates the
// result. A missing config file is only an error when --config was given.
func loadEnv(cmd *cobra.Command, flags *globalFlags) (*env, error) {
	cfg, err := config.Load(flags.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	case err != nil:
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	e := &env{cfg: cfg, root: filepath.Dir(flags.configPath)}
	if flags.asOf != "" {
		asOf, ok := normalize.ParseDate(flags.asOf)
		if !ok {
			return nil, fmt.Errorf("invalid --as-of date %q (want %s)", flags.asOf, model.DateFormat)
		}
		e.asOf = asOf
	}
	return e, nil
}

// validate reports every config issue as one error.
func (e *env) validate() error {
	issues := config.Validate(e.cfg)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, iss := range issues {
		msgs[i] = iss.Error()
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// resolve makes a config-relative path absolute against the config directory.
func (e *env) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

// logger builds the zerolog logger described by the log config.
func (e *env) logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(e.cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if e.cfg.Log.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// loadRecords opens the configured source, reads it and normalizes the rows.
func (e *env) loadRecords(ctx context.Context) ([]model.CleanRecord, normalize.Stats, string, error) {
	logger := zerolog.Ctx(ctx)

	srcCfg := e.cfg.Source
	if srcCfg.Kind == "csv" {
		srcCfg.Path = e.resolve(srcCfg.Path)
	}
	src, err := source.DefaultRegistry().Open(ctx, srcCfg)
	if err != nil {
		return nil, normalize.Stats{}, "", fmt.Errorf("opening source: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close source")
		}
	}()

	raw, err := src.Load(ctx)
	if err != nil {
		return nil, normalize.Stats{}, src.Describe(), fmt.Errorf("loading source: %w", err)
	}

	clean, stats := normalize.Records(raw)
	logger.Info().
		Str("source", src.Describe()).
		Int("read", stats.Read).
		Int("kept", stats.Kept).
		Int("clamped", stats.Clamped).
		Msg("normalized snapshots")
	if stats.Dropped > 0 {
		logger.Warn().Int("dropped", stats.Dropped).Msg("dropped rows missing ids or dates")
	}
	return clean, stats, src.Describe(), nil
}

// openOutput returns the writer for CSV output: the given file, or stdout
// when path is empty.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, f.Close, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
