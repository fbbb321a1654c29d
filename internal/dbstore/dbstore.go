// Package dbstore stores structured entries in SQLite. A schema is a table;
// entries are rows addressed through selectors. Mutations are applied in
// batches, each batch in one transaction.
package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/gezibash/arc-bench/internal/storage"
)

const (
	KeyPath        = "path"
	KeyJournalMode = "journal_mode"
	KeyBusyTimeout = "busy_timeout"
	KeyCacheSize   = "cache_size"
)

// MemoryPath keeps the database in process.
const MemoryPath = ":memory:"

// Defaults returns the default options.
func Defaults() storage.Options {
	return storage.Options{
		KeyPath:        MemoryPath,
		KeyJournalMode: "wal",
		KeyBusyTimeout: "5000",
		KeyCacheSize:   "-64000",
	}
}

// Store is a SQLite database holding schemas and their entries.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens the database described by opts.
func Open(ctx context.Context, opts storage.Options) (*Store, error) {
	opts = storage.Merge(Defaults(), opts)

	path := opts.Path(KeyPath, MemoryPath)
	journalMode := opts.String(KeyJournalMode, "wal")
	if path == MemoryPath {
		journalMode = "memory"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, storage.NewConfigErrorWithCause("sqlite", KeyPath, "failed to create directory", err)
		}
	}
	busyTimeout, err := opts.Int(KeyBusyTimeout, 5000)
	if err != nil {
		return nil, err
	}
	cacheSize, err := opts.Int(KeyCacheSize, -64000)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(%s)&_pragma=busy_timeout(%d)&_pragma=cache_size(%d)",
		path, journalMode, busyTimeout, cacheSize)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storage.NewConfigErrorWithCause("sqlite", KeyPath, "failed to open database", err)
	}
	// One connection: an in-memory database lives and dies with it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storage.NewConfigErrorWithCause("sqlite", KeyPath, "failed to open database", err)
	}

	slog.Debug("dbstore initialized", "path", path, "journal_mode", journalMode)
	return &Store{db: db}, nil
}

// Op is one mutation in a batch.
type Op interface {
	apply(ctx context.Context, tx *sql.Tx) error
}

// CreateSchema creates the table and indexes of Schema.
type CreateSchema struct{ Schema *Schema }

// DropSchema drops a schema and all its entries.
type DropSchema struct{ Schema *Schema }

// Insert adds an entry. Fields left out are NULL.
type Insert struct {
	Schema *Schema
	Values map[string]any
}

// Update sets Values on every entry Selector matches.
type Update struct {
	Schema   *Schema
	Selector *Selector
	Values   map[string]any
}

// Delete removes every entry Selector matches.
type Delete struct {
	Schema   *Schema
	Selector *Selector
}

// Apply runs ops in order inside one transaction. Either all of them take
// effect or none.
func (s *Store) Apply(ctx context.Context, ops []Op) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite apply: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, op := range ops {
		if err := op.apply(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite apply: commit: %w", err)
	}
	return nil
}

func schemaExists(ctx context.Context, tx *sql.Tx, s *Schema) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`,
		s.Namespace+"_"+s.Name,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (op CreateSchema) apply(ctx context.Context, tx *sql.Tx) error {
	if err := op.Schema.Validate(); err != nil {
		return err
	}
	exists, err := schemaExists(ctx, tx, op.Schema)
	if err != nil {
		return fmt.Errorf("sqlite create schema: %w", err)
	}
	if exists {
		return fmt.Errorf("sqlite create schema %s: %w", op.Schema.Name, ErrSchemaExists)
	}
	for _, stmt := range op.Schema.createSQL() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite create schema: %w", err)
		}
	}
	return nil
}

func (op DropSchema) apply(ctx context.Context, tx *sql.Tx) error {
	exists, err := schemaExists(ctx, tx, op.Schema)
	if err != nil {
		return fmt.Errorf("sqlite drop schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("sqlite drop schema %s: %w", op.Schema.Name, ErrSchemaNotFound)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE "+op.Schema.table()); err != nil {
		return fmt.Errorf("sqlite drop schema: %w", err)
	}
	return nil
}

// columns returns the checked values in schema field order.
func columns(s *Schema, values map[string]any) ([]string, []any, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, len(names))
	for i, name := range names {
		v, err := s.CheckValue(name, values[name])
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}
	return names, args, nil
}

func (op Insert) apply(ctx context.Context, tx *sql.Tx) error {
	names, args, err := columns(op.Schema, op.Values)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		_, err = tx.ExecContext(ctx, "INSERT INTO "+op.Schema.table()+" DEFAULT VALUES")
	} else {
		quoted := make([]string, len(names))
		for i, n := range names {
			quoted[i] = quote(n)
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", op.Schema.table(),
			strings.Join(quoted, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))
		_, err = tx.ExecContext(ctx, stmt, args...)
	}
	if err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}
	return nil
}

func (op Update) apply(ctx context.Context, tx *sql.Tx) error {
	names, args, err := columns(op.Schema, op.Values)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("sqlite update: %w: no fields set", ErrInvalidSelector)
	}
	sets := make([]string, len(names))
	for i, n := range names {
		sets[i] = quote(n) + " = ?"
	}
	where, wargs, err := op.Selector.where(op.Schema)
	if err != nil {
		return err
	}
	stmt := "UPDATE " + op.Schema.table() + " SET " + strings.Join(sets, ", ") + where
	if _, err := tx.ExecContext(ctx, stmt, append(args, wargs...)...); err != nil {
		return fmt.Errorf("sqlite update: %w", err)
	}
	return nil
}

func (op Delete) apply(ctx context.Context, tx *sql.Tx) error {
	where, args, err := op.Selector.where(op.Schema)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+op.Schema.table()+where, args...); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Row is one entry read back. Values carry the Go type of their field:
// string, float64, uint64, int64 or []byte. NULL fields are absent.
type Row map[string]any

// Query returns the entries sel matches in insertion order.
func (s *Store) Query(ctx context.Context, schema *Schema, sel *Selector) ([]Row, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	where, args, err := sel.where(schema)
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = quote(f.Name)
	}
	stmt := "SELECT " + strings.Join(cols, ", ") + " FROM " + schema.table() + where + " ORDER BY _id"

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	var out []Row
	dest := make([]any, len(schema.Fields))
	ptrs := make([]any, len(schema.Fields))
	for rows.Next() {
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite query: scan: %w", err)
		}
		row := make(Row, len(dest))
		for i, f := range schema.Fields {
			if dest[i] == nil {
				continue
			}
			row[f.Name] = fromSQL(f.Type, dest[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	return out, nil
}

func fromSQL(t FieldType, v any) any {
	switch t {
	case Uint:
		if n, ok := v.(int64); ok {
			return uint64(n)
		}
	case String:
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	case Float:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	}
	return v
}

// Close closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
