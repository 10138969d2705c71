package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-dynspec/dynspec"
	"github.com/cwbudde/algo-dynspec/extract"
	"github.com/cwbudde/algo-dynspec/extract/rawpol"
	"github.com/cwbudde/algo-dynspec/extract/sqlitecube"
	"github.com/cwbudde/algo-dynspec/internal/config"
	"github.com/cwbudde/algo-dynspec/internal/report"
)

// loadConfig reads --config when given, applies flag overrides and
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyOverrides(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSource opens the configured visibility container. The returned
// close function is never nil.
func openSource(src config.SourceConfig, logger *slog.Logger) (extract.Source, func() error, error) {
	switch src.Kind {
	case config.SourceSQLite:
		store, err := sqlitecube.Open(src.Path, sqlitecube.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.SourceRawPol:
		s, err := rawpol.Load(src.Path, rawpol.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", src.Kind)
}

// build constructs the dynamic spectrum described by cfg and writes the
// run summary when output.metrics is set.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dynspec.DynamicSpectrum, error) {
	src, closeSrc, err := openSource(cfg.Source, logger)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	started := time.Now()
	ds, err := dynspec.New(ctx, src, cfg.Dynspec(),
		dynspec.WithLogger(logger),
		dynspec.WithSynthesizer(cfg.Synthesizer(), cfg.EngineOptions()...),
	)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)

	if cfg.Output.Metrics != "" {
		if err := report.WriteFile(cfg.Output.Metrics, report.Summary(ds, elapsed)); err != nil {
			return nil, err
		}
		logger.Debug("run summary written", "path", cfg.Output.Metrics)
	}
	return ds, nil
}

// prepare is the common entry of every spectrum command.
func prepare(cmd *cobra.Command) (*config.Config, *dynspec.DynamicSpectrum, *slog.Logger, error) {
	logger := newLogger(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ds, err := build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, ds, logger, nil
}

// createOutput creates name inside the output directory.
func createOutput(cfg *config.Config, name string) (*os.File, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(cfg.Output.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

// writeColumns writes equally long columns under header, skipping rows
// that hold a NaN.
func writeColumns(cfg *config.Config, name string, header []string, cols ...[]float64) (string, error) {
	if len(cols) == 0 || len(cols) != len(header) {
		return "", fmt.Errorf("%s: %d columns for %d header fields", name, len(cols), len(header))
	}
	for _, c := range cols[1:] {
		if len(c) != len(cols[0]) {
			return "", fmt.Errorf("%s: column lengths differ", name)
		}
	}

	f, err := createOutput(cfg, name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", err
	}
	record := make([]string, len(cols))
rows:
	for i := range cols[0] {
		for k, c := range cols {
			if math.IsNaN(c[i]) {
				continue rows
			}
			record[k] = strconv.FormatFloat(c[i], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return f.Name(), f.Close()
}
