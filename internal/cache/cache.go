// Package cache persists analysis results in SQLite so unchanged projects
// skip the scan-graph-detect pipeline.
//
// A Store is an explicit object owned by the caller; nothing here is global.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no entry matches a fingerprint.
var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached signature.
type Entry struct {
	Fingerprint string              `json:"fingerprint"`
	Root        string              `json:"root"`
	RunID       string              `json:"run_id"`
	Signature   signature.Signature `json:"signature"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Store is a SQLite-backed signature cache.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the cache database at path and applies
// pending migrations. Use ":memory:" for a throwaway cache.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	s := NewWithDB(db, logger)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection without migrating it.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// Migrate runs all pending database migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores sig under fingerprint, replacing any previous entry, and
// returns the entry with a fresh run id.
func (s *Store) Put(ctx context.Context, root, fingerprint string, sig signature.Signature) (*Entry, error) {
	payload, err := json.Marshal(sig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}

	e := &Entry{
		Fingerprint: fingerprint,
		Root:        root,
		RunID:       uuid.New().String(),
		Signature:   sig,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO signatures (fingerprint, root, run_id, payload, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET root = excluded.root, run_id = excluded.run_id,
		 payload = excluded.payload, created_at = excluded.created_at`,
		e.Fingerprint, e.Root, e.RunID, string(payload), e.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store signature: %w", err)
	}

	s.logger.Debug("cached signature", slog.String("fingerprint", fingerprint), slog.String("run_id", e.RunID))
	return e, nil
}

// Get returns the entry for fingerprint or ErrNotFound.
func (s *Store) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, root, run_id, payload, created_at FROM signatures WHERE fingerprint = ?`,
		fingerprint,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signature: %w", err)
	}
	return e, nil
}

// List returns every entry, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, root, run_id, payload, created_at FROM signatures ORDER BY created_at DESC, fingerprint`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list signatures: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	return out, nil
}

// Prune deletes entries older than maxAge and reports how many went.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM signatures WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune signatures: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM signatures`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear signatures: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var payload string
	var created int64
	if err := row.Scan(&e.Fingerprint, &e.Root, &e.RunID, &payload, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &e.Signature); err != nil {
		return nil, fmt.Errorf("corrupt payload for %s: %w", e.Fingerprint, err)
	}
	e.CreatedAt = time.Unix(created, 0).UTC()
	return &e, nil
}

// Fingerprint hashes the shape of a project model: sorted file paths with
// their symbol counts, imports, declared names and read errors. extra folds analysis
// settings into the key so a changed option invalidates the entry.
func Fingerprint(model *core.ProjectModel, extra ...string) string {
	h := sha256.New()
	for _, f := range model.SortedFiles() {
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(len(f.Symbols.Imports))))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(len(f.Symbols.DeclaredNames))))
		h.Write([]byte{0})
		facts := append([]string(nil), f.Symbols.Imports...)
		for _, d := range f.Symbols.DeclaredNames {
			facts = append(facts, string(d.Kind)+":"+d.Name)
		}
		sort.Strings(facts)
		for _, fact := range facts {
			h.Write([]byte(fact))
			h.Write([]byte{0})
		}
		h.Write([]byte(f.ReadError))
		h.Write([]byte{'\n'})
	}
	for _, x := range extra {
		h.Write([]byte(x))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
