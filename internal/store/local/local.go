// Package local implements the record store on a local SQLite database.
// It exists for development and offline demos: the same edit engine runs
// against it unchanged, with no hosted API in sight.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"rollcall/internal/field"
	"rollcall/internal/store"
	"rollcall/internal/types"
)

const table = "participants"

// Store wraps a SQLite database. One column per registered field, named
// after the field, plus the id primary key.
type Store struct {
	db     *sql.DB
	fields *field.Registry
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(ctx context.Context, path string, fields *field.Registry) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("local: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, fields: fields}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	ddl := "CREATE TABLE IF NOT EXISTS " + table + " (id TEXT PRIMARY KEY"
	for _, d := range s.fields.Descriptors() {
		col := " TEXT"
		if d.Kind == field.KindBoundedInt {
			col = " INTEGER"
		}
		ddl += ", " + string(d.Name) + col
	}
	ddl += ")"
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("local: creating schema: %w", err)
	}
	return nil
}

// Fetch loads one record by id.
func (s *Store) Fetch(ctx context.Context, id string) (*types.Record, error) {
	descs := s.fields.Descriptors()
	cols := make([]string, 0, len(descs))
	for _, d := range descs {
		cols = append(cols, string(d.Name))
	}

	query, args, err := sq.Select(cols...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("local: building fetch query: %w", err)
	}

	dests := make([]any, len(descs))
	strs := make([]sql.NullString, len(descs))
	ints := make([]sql.NullInt64, len(descs))
	for i, d := range descs {
		if d.Kind == field.KindBoundedInt {
			dests[i] = &ints[i]
		} else {
			dests[i] = &strs[i]
		}
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(dests...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("local: fetching %s: %w", id, err)
	}

	rec := types.NewRecord(id)
	for i, d := range descs {
		switch d.Kind {
		case field.KindBoundedInt:
			if ints[i].Valid {
				rec.Values[d.Name] = types.IntValue(int(ints[i].Int64))
			}
		case field.KindDate:
			if strs[i].Valid && strs[i].String != "" {
				t, err := time.Parse(types.DateLayout, strs[i].String)
				if err != nil {
					return nil, fmt.Errorf("local: record %s field %s: %w", id, d.Name, err)
				}
				rec.Values[d.Name] = types.DateValue(t)
			}
		default:
			if strs[i].Valid && strs[i].String != "" {
				rec.Values[d.Name] = types.TextValue(strs[i].String)
			}
		}
	}
	return rec, nil
}

// Update applies one change-set in a single UPDATE statement. Cleared
// fields become NULL.
func (s *Store) Update(ctx context.Context, id string, changes map[types.FieldName]types.Change) error {
	if len(changes) == 0 {
		return nil
	}

	set := make(map[string]any, len(changes))
	for name, ch := range changes {
		if ch.Cleared {
			set[string(name)] = nil
			continue
		}
		switch ch.Value.Kind {
		case types.KindInt:
			set[string(name)] = ch.Value.Int
		case types.KindDate:
			set[string(name)] = ch.Value.Date.Format(types.DateLayout)
		default:
			set[string(name)] = ch.Value.Text
		}
	}

	query, args, err := sq.Update(table).SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("local: building update query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("local: updating %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("local: updating %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Insert writes a full record. Used by seeding.
func (s *Store) Insert(ctx context.Context, rec *types.Record) error {
	cols := []string{"id"}
	vals := []any{rec.ID}
	for _, d := range s.fields.Descriptors() {
		v, ok := rec.Values[d.Name]
		if !ok {
			continue
		}
		cols = append(cols, string(d.Name))
		switch v.Kind {
		case types.KindInt:
			vals = append(vals, v.Int)
		case types.KindDate:
			vals = append(vals, v.Date.Format(types.DateLayout))
		default:
			vals = append(vals, v.Text)
		}
	}

	query, args, err := sq.Insert(table).Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return fmt.Errorf("local: building insert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("local: inserting %s: %w", rec.ID, err)
	}
	return nil
}
