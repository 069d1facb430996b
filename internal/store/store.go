package store

import (
	"context"

	"github.com/arzormc/warden/internal/model"
)

// Store defines the persistence interface over the shared punishment
// database. Rows are owned by the punishment backend; warden reads them for
// history browsing and rewrites individual rows for pardon and reinstate.
type Store interface {
	// History reads
	ListHistory(ctx context.Context, subject string) ([]*model.Entry, error)
	GetEntry(ctx context.Context, kind model.Kind, id int64) (*model.Entry, error)

	// History mutation. The caller composes the removed_by_reason column
	// (human reason plus audit trail); the store writes it verbatim.
	// Deactivate records the first removal permanently: removed_by_name
	// and removed_by_date are set here and never cleared afterwards.
	Deactivate(ctx context.Context, kind model.Kind, id int64, removedByName, removedByReason string, removedAtMillis int64) error
	// Reactivate touches only active, until and removed_by_reason. until
	// is passed in the unit the row originally stored.
	Reactivate(ctx context.Context, kind model.Kind, id int64, until int64, removedByReason string) error

	// Export
	AllEntries(ctx context.Context) ([]*model.Entry, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
