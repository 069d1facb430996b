package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arzormc/warden/internal/model"
)

// entryColumns is the column list used for SELECT statements on the four
// punishment tables. The tables share this layout.
const entryColumns = `id, uuid, reason, banned_by_name, time, until, active,
	removed_by_name, removed_by_reason, removed_by_date`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// historyKinds is the table scan order for cross-table history reads.
var historyKinds = []model.Kind{model.KindBan, model.KindMute, model.KindWarn, model.KindKick}

// tableFor maps a kind onto its punishment table.
func tableFor(kind model.Kind) (string, error) {
	switch kind {
	case model.KindBan:
		return "litebans_bans", nil
	case model.KindMute:
		return "litebans_mutes", nil
	case model.KindWarn:
		return "litebans_warnings", nil
	case model.KindKick:
		return "litebans_kicks", nil
	}
	return "", fmt.Errorf("unknown punishment kind %q", kind)
}

func queryListHistory(ctx context.Context, db executor, subject string) ([]*model.Entry, error) {
	var all []*model.Entry
	for _, kind := range historyKinds {
		table, err := tableFor(kind)
		if err != nil {
			return nil, err
		}
		rows, err := db.QueryContext(ctx,
			`SELECT `+entryColumns+` FROM `+table+` WHERE uuid = $1 ORDER BY time DESC`,
			subject,
		)
		if err != nil {
			return nil, fmt.Errorf("list %s history: %w", kind, err)
		}
		entries, err := scanEntries(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s history: %w", kind, err)
		}
		all = append(all, entries...)
	}

	sortEntriesByTimeDesc(all)
	return all, nil
}

func queryGetEntry(ctx context.Context, db executor, kind model.Kind, id int64) (*model.Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM `+table+` WHERE id = $1`, id)
	return scanEntry(row, kind)
}

func queryDeactivate(ctx context.Context, db executor, kind model.Kind, id int64, removedByName, removedByReason string, removedAtMillis int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE `+table+`
		SET active = FALSE, removed_by_name = $2, removed_by_reason = $3, removed_by_date = $4
		WHERE id = $1`,
		id, removedByName, removedByReason, removedAtMillis,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// queryReactivate touches only active, until and removed_by_reason. The
// first-removal columns stay as the pardon wrote them.
func queryReactivate(ctx context.Context, db executor, kind model.Kind, id int64, until int64, removedByReason string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE `+table+`
		SET active = TRUE, until = $2, removed_by_reason = $3
		WHERE id = $1`,
		id, until, removedByReason,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func queryAllEntries(ctx context.Context, db executor) ([]*model.Entry, error) {
	var all []*model.Entry
	for _, kind := range historyKinds {
		table, err := tableFor(kind)
		if err != nil {
			return nil, err
		}
		rows, err := db.QueryContext(ctx,
			`SELECT `+entryColumns+` FROM `+table+` ORDER BY id`)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", kind, err)
		}
		entries, err := scanEntries(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s export: %w", kind, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
