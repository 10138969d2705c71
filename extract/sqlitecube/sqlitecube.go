// Package sqlitecube stores per-baseline visibility cubes in a single SQLite
// file and serves them as an [extract.Source].
//
// Layout:
//
//	meta(key, value)                    container attributes
//	time(idx, value)                    MJD seconds
//	frequency(idx, value)               Hz
//	baseline(idx, uvdist)               metres
//	visibility(baseline, time, data)    channels x XX,XY,YX,YY
//
// Each visibility blob is [extract.MarshalComplex] of the channel-major
// correlations, so NaN payloads survive the round trip bit for bit.
package sqlitecube

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-dynspec/extract"
)

// FormatVersion is written to the meta table.
const FormatVersion = 1

// ErrFormat indicates a file that is not a readable cube.
var ErrFormat = errors.New("sqlitecube: unsupported file")

const schema = `
CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
CREATE TABLE time (idx INTEGER PRIMARY KEY, value REAL NOT NULL);
CREATE TABLE frequency (idx INTEGER PRIMARY KEY, value REAL NOT NULL);
CREATE TABLE baseline (idx INTEGER PRIMARY KEY, uvdist REAL NOT NULL);
CREATE TABLE visibility (
	baseline INTEGER NOT NULL,
	time     INTEGER NOT NULL,
	data     BLOB NOT NULL,
	PRIMARY KEY (baseline, time)
);
`

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitecube: open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitecube: %s: %w", pragma, err)
		}
	}
	return db, nil
}

// Write stores c in a new file at path.
func Write(ctx context.Context, path string, c *extract.Cube) error {
	if err := c.Validate(); err != nil {
		return err
	}
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitecube: begin: %w", err)
	}
	if err := writeTx(ctx, tx, c); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitecube: commit: %w", err)
	}
	return nil
}

func writeTx(ctx context.Context, tx *sql.Tx, c *extract.Cube) error {
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlitecube: create schema: %w", err)
	}

	meta := map[string]string{
		"version":   strconv.Itoa(FormatVersion),
		"telescope": c.Telescope,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("sqlitecube: write meta: %w", err)
		}
	}

	axes := []struct {
		query  string
		values []float64
	}{
		{`INSERT INTO time (idx, value) VALUES (?, ?)`, c.Time},
		{`INSERT INTO frequency (idx, value) VALUES (?, ?)`, c.Freq},
		{`INSERT INTO baseline (idx, uvdist) VALUES (?, ?)`, c.UVDist},
	}
	for _, axis := range axes {
		stmt, err := tx.PrepareContext(ctx, axis.query)
		if err != nil {
			return fmt.Errorf("sqlitecube: prepare axis: %w", err)
		}
		for i, v := range axis.values {
			if _, err := stmt.ExecContext(ctx, i, v); err != nil {
				stmt.Close()
				return fmt.Errorf("sqlitecube: write axis: %w", err)
			}
		}
		stmt.Close()
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO visibility (baseline, time, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitecube: prepare visibility: %w", err)
	}
	defer stmt.Close()

	width := len(c.Freq) * extract.NumCorrelations
	for b := range c.UVDist {
		for t := range c.Time {
			start := c.Index(b, t, 0, 0)
			blob := extract.MarshalComplex(c.Data[start : start+width])
			if _, err := stmt.ExecContext(ctx, b, t, blob); err != nil {
				return fmt.Errorf("sqlitecube: write baseline %d time %d: %w", b, t, err)
			}
		}
	}
	return nil
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for selection warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is an open cube file.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ extract.Source = (*Store)(nil)

// Open opens an existing cube file.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	var version string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	if version != strconv.Itoa(FormatVersion) {
		db.Close()
		return nil, fmt.Errorf("%w: %s: version %s", ErrFormat, path, version)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Cube reads the whole file into memory.
func (s *Store) Cube(ctx context.Context) (*extract.Cube, error) {
	var telescope string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'telescope'`).Scan(&telescope); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlitecube: read meta: %w", err)
	}

	time, err := s.axis(ctx, `SELECT value FROM time ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	freq, err := s.axis(ctx, `SELECT value FROM frequency ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	uvdist, err := s.axis(ctx, `SELECT uvdist FROM baseline ORDER BY idx`)
	if err != nil {
		return nil, err
	}

	c := extract.NewCube(time, freq, uvdist)
	c.Telescope = telescope

	rows, err := s.db.QueryContext(ctx, `SELECT baseline, time, data FROM visibility`)
	if err != nil {
		return nil, fmt.Errorf("sqlitecube: query visibility: %w", err)
	}
	defer rows.Close()

	width := len(freq) * extract.NumCorrelations
	for rows.Next() {
		var b, t int
		var blob []byte
		if err := rows.Scan(&b, &t, &blob); err != nil {
			return nil, fmt.Errorf("sqlitecube: scan visibility: %w", err)
		}
		if b < 0 || b >= len(uvdist) || t < 0 || t >= len(time) {
			return nil, fmt.Errorf("%w: visibility (%d, %d) outside axes", ErrFormat, b, t)
		}
		start := c.Index(b, t, 0, 0)
		if err := extract.UnmarshalComplex(c.Data[start:start+width], blob); err != nil {
			return nil, fmt.Errorf("sqlitecube: baseline %d time %d: %w", b, t, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitecube: read visibility: %w", err)
	}
	return c, nil
}

// Visibilities reads the cube and averages it over the selected baselines.
func (s *Store) Visibilities(ctx context.Context, sel extract.Selection) (*extract.Visibilities, error) {
	c, err := s.Cube(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded visibility cube", "path", s.path,
		"baselines", len(c.UVDist), "integrations", len(c.Time), "channels", len(c.Freq))
	return c.Average(sel, s.logger)
}

func (s *Store) axis(ctx context.Context, query string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlitecube: %s: %w", query, err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("sqlitecube: %s: %w", query, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
