package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("store is closed")
)

// HistoryStore records every settled fetch so the upstream API can be inspected afterward.
// It is write-mostly: the running application only appends.
type HistoryStore interface {
	// Append assigns the next BatchID to b and persists it.
	Append(ctx context.Context, b *Batch) error
	Get(ctx context.Context, id BatchID) (*Batch, error)
	// Walk calls fn for every batch in ascending id order until fn returns false.
	Walk(fn func(b *Batch) bool) error
	Close() error
}
