// Package store defines the record-store surface the edit engine depends
// on, plus the error taxonomy the commit engine classifies. Backends live
// in the hosted (HTTP API), local (SQLite), and memory subpackages.
package store

import (
	"context"
	"errors"

	"rollcall/internal/types"
)

// Sentinel errors every backend maps its failures onto. The commit engine
// classifies ErrRateLimited and ErrUnavailable as retryable, ErrNotFound
// and ErrSchemaRejected as fatal.
var (
	ErrNotFound       = errors.New("store: record not found")
	ErrRateLimited    = errors.New("store: rate limited")
	ErrUnavailable    = errors.New("store: temporarily unavailable")
	ErrSchemaRejected = errors.New("store: update rejected by schema")
)

// Client is the minimal surface the edit engine needs: fetch one record,
// write one change-set. Update applies all changes in a single call;
// partial multi-field writes are never attempted.
type Client interface {
	Fetch(ctx context.Context, id string) (*types.Record, error)
	Update(ctx context.Context, id string, changes map[types.FieldName]types.Change) error
}
