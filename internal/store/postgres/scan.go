package postgres

import (
	"database/sql"
	"sort"

	"github.com/arzormc/warden/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEntry scans a single row into a model.Entry. The row must contain
// columns in the order defined by entryColumns. Timestamps stored in
// seconds are normalized to milliseconds; the original unit of the until
// column is remembered so mutating writes can restore it.
func scanEntry(row scannable, kind model.Kind) (*model.Entry, error) {
	var e model.Entry
	var (
		issuer        sql.NullString
		rawTime       sql.NullInt64
		rawUntil      sql.NullInt64
		removedName   sql.NullString
		removedReason sql.NullString
		removedDate   sql.NullInt64
	)

	err := row.Scan(
		&e.ID,
		&e.Subject,
		&e.Reason,
		&issuer,
		&rawTime,
		&rawUntil,
		&e.Active,
		&removedName,
		&removedReason,
		&removedDate,
	)
	if err != nil {
		return nil, err
	}

	e.Kind = kind
	e.Issuer = issuer.String
	e.TimeMillis = model.NormalizeEpochMillis(rawTime.Int64)
	e.UntilMillis = model.NormalizeEpochMillis(rawUntil.Int64)
	e.UntilWasSeconds = rawUntil.Int64 > 0 && rawUntil.Int64 < 100_000_000_000
	e.RemovedByName = removedName.String
	e.RemovedByReason = removedReason.String
	e.RemovedAtMillis = model.NormalizeEpochMillis(removedDate.Int64)

	return &e, nil
}

// scanEntries drains rows into entries, closing the rows.
func scanEntries(rows *sql.Rows, kind model.Kind) ([]*model.Entry, error) {
	defer rows.Close()

	var out []*model.Entry
	for rows.Next() {
		e, err := scanEntry(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// sortEntriesByTimeDesc orders merged cross-table history newest first,
// breaking ties by id for a stable listing.
func sortEntriesByTimeDesc(entries []*model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TimeMillis != entries[j].TimeMillis {
			return entries[i].TimeMillis > entries[j].TimeMillis
		}
		return entries[i].ID > entries[j].ID
	})
}
