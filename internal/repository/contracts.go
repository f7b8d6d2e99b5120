package repository

import (
	"context"

	"github.com/maxviazov/config-grid-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a read snapshot.
type TxFunc func(ctx context.Context) error

// TxManager runs a unit of work against a consistent view of the store.
// Listing uses it so the counts and the page come from the same snapshot.
type TxManager interface {
	WithinReadTx(ctx context.Context, fn TxFunc) error
}

// RecordAccessor is the backing record source for one or more grid resources.
// Implementations own their concurrency safety (pooling, locking); callers treat
// every call as blocking and synchronous.
type RecordAccessor interface {
	// Count returns the number of rows matching the criteria, ignoring pagination.
	Count(ctx context.Context, resource string, where model.Criteria) (int, error)
	// FetchPage returns the matching rows in sort order, ties broken by primary key ascending.
	FetchPage(ctx context.Context, resource string, where model.Criteria, sort model.Sort, p Page) ([]model.Record, error)
}
