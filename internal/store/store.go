// Package store holds cloud account records. Every record handed in or out is
// a deep copy, so callers never share state with the store.
package store

import (
	"context"
	"errors"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

var ErrNotFound = errors.New("cloud not found")

// Store is the record store behind the Cloud Management page.
type Store interface {
	// List returns all records, newest first.
	List(ctx context.Context) ([]types.Cloud, error)
	Get(ctx context.Context, id string) (types.Cloud, error)
	// Create prepends c. A fresh id is assigned when c has none.
	Create(ctx context.Context, c types.Cloud) (types.Cloud, error)
	// Update replaces the record with c.ID, keeping its position.
	Update(ctx context.Context, c types.Cloud) (types.Cloud, error)
	Delete(ctx context.Context, id string) error
}
