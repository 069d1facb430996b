package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/arzormc/warden/internal/model"
	"github.com/arzormc/warden/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// entryRowColumns is the column list for scanEntry results.
var entryRowColumns = []string{
	"id", "uuid", "reason", "banned_by_name", "time", "until", "active",
	"removed_by_name", "removed_by_reason", "removed_by_date",
}

func emptyEntryRows() *sqlmock.Rows {
	return sqlmock.NewRows(entryRowColumns)
}

const subjectUUID = "f81d4fae-7dec-11d0-a765-00a0c91e6bf6"

func TestListHistoryMergesTables(t *testing.T) {
	db, mock := newMockDB(t)

	banRows := emptyEntryRows().
		AddRow(int64(7), subjectUUID, "griefing spawn", "Steve", int64(1_700_000_100_000), int64(0), true, nil, nil, nil)
	muteRows := emptyEntryRows().
		AddRow(int64(3), subjectUUID, "spam", "Alex", int64(1_700_000_200_000), int64(1_700_003_800_000), false, "Alex", "appealed", int64(1_700_000_300_000))

	mock.ExpectQuery(`SELECT .+ FROM litebans_bans WHERE uuid = \$1 ORDER BY time DESC`).
		WithArgs(subjectUUID).WillReturnRows(banRows)
	mock.ExpectQuery(`SELECT .+ FROM litebans_mutes WHERE uuid = \$1 ORDER BY time DESC`).
		WithArgs(subjectUUID).WillReturnRows(muteRows)
	mock.ExpectQuery(`SELECT .+ FROM litebans_warnings WHERE uuid = \$1 ORDER BY time DESC`).
		WithArgs(subjectUUID).WillReturnRows(emptyEntryRows())
	mock.ExpectQuery(`SELECT .+ FROM litebans_kicks WHERE uuid = \$1 ORDER BY time DESC`).
		WithArgs(subjectUUID).WillReturnRows(emptyEntryRows())

	s := &PostgresStore{db: db}
	entries, err := s.ListHistory(context.Background(), subjectUUID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Newest first across tables: the mute is more recent than the ban.
	if entries[0].Kind != model.KindMute || entries[1].Kind != model.KindBan {
		t.Errorf("merge order wrong: %s then %s", entries[0].Kind, entries[1].Kind)
	}
	if entries[0].RemovedByName != "Alex" || entries[0].RemovedAtMillis != 1_700_000_300_000 {
		t.Errorf("removal fields lost: %+v", entries[0])
	}
}

func TestGetEntryNormalizesSeconds(t *testing.T) {
	db, mock := newMockDB(t)

	// Row stored with second-precision timestamps.
	rows := emptyEntryRows().
		AddRow(int64(11), subjectUUID, "fly hacks", "Steve", int64(1_700_000_000), int64(1_700_003_600), true, nil, nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM litebans_bans WHERE id = \$1`).
		WithArgs(int64(11)).WillReturnRows(rows)

	s := &PostgresStore{db: db}
	e, err := s.GetEntry(context.Background(), model.KindBan, 11)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if e.TimeMillis != 1_700_000_000_000 || e.UntilMillis != 1_700_003_600_000 {
		t.Errorf("timestamps not normalized: time=%d until=%d", e.TimeMillis, e.UntilMillis)
	}
	if !e.UntilWasSeconds {
		t.Error("original until unit forgotten")
	}
}

func TestGetEntryMillisKeepUnit(t *testing.T) {
	db, mock := newMockDB(t)

	rows := emptyEntryRows().
		AddRow(int64(12), subjectUUID, "spam", "Alex", int64(1_700_000_000_000), int64(1_700_003_600_000), true, nil, nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM litebans_mutes WHERE id = \$1`).
		WithArgs(int64(12)).WillReturnRows(rows)

	s := &PostgresStore{db: db}
	e, err := s.GetEntry(context.Background(), model.KindMute, 12)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if e.UntilWasSeconds {
		t.Error("millisecond until misread as seconds")
	}
}

func TestGetEntryNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT .+ FROM litebans_warnings WHERE id = \$1`).
		WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	s := &PostgresStore{db: db}
	_, err := s.GetEntry(context.Background(), model.KindWarn, 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestGetEntryUnknownKind(t *testing.T) {
	db, _ := newMockDB(t)
	s := &PostgresStore{db: db}
	if _, err := s.GetEntry(context.Background(), model.Kind("bogus"), 1); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDeactivate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE litebans_bans\s+SET active = FALSE, removed_by_name = \$2, removed_by_reason = \$3, removed_by_date = \$4\s+WHERE id = \$1`).
		WithArgs(int64(7), "Steve", "appeal accepted", int64(1_700_000_400_000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := &PostgresStore{db: db}
	err := s.Deactivate(context.Background(), model.KindBan, 7, "Steve", "appeal accepted", 1_700_000_400_000)
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
}

func TestDeactivateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE litebans_mutes`).
		WithArgs(int64(404), "Steve", "gone", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := &PostgresStore{db: db}
	err := s.Deactivate(context.Background(), model.KindMute, 404, "Steve", "gone", 1)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestReactivate(t *testing.T) {
	db, mock := newMockDB(t)

	column := "appeal accepted\n" + model.EncodeReissue("Steve", 1_700_000_500_000, "false appeal")
	mock.ExpectExec(`UPDATE litebans_bans\s+SET active = TRUE, until = \$2, removed_by_reason = \$3\s+WHERE id = \$1`).
		WithArgs(int64(7), int64(1_700_000_900), column).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := &PostgresStore{db: db}
	if err := s.Reactivate(context.Background(), model.KindBan, 7, 1_700_000_900, column); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
}

func TestAllEntries(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT .+ FROM litebans_bans ORDER BY id`).
		WillReturnRows(emptyEntryRows().
			AddRow(int64(1), subjectUUID, "x", "Steve", int64(1_700_000_000_000), int64(0), true, nil, nil, nil))
	mock.ExpectQuery(`SELECT .+ FROM litebans_mutes ORDER BY id`).WillReturnRows(emptyEntryRows())
	mock.ExpectQuery(`SELECT .+ FROM litebans_warnings ORDER BY id`).WillReturnRows(emptyEntryRows())
	mock.ExpectQuery(`SELECT .+ FROM litebans_kicks ORDER BY id`).
		WillReturnRows(emptyEntryRows().
			AddRow(int64(2), subjectUUID, "y", "Alex", int64(1_700_000_001_000), int64(0), true, nil, nil, nil))

	s := &PostgresStore{db: db}
	entries, err := s.AllEntries(context.Background())
	if err != nil {
		t.Fatalf("AllEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Kind != model.KindBan || entries[1].Kind != model.KindKick {
		t.Errorf("kinds = %s, %s", entries[0].Kind, entries[1].Kind)
	}
}

func TestRunInTransactionCommit(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE litebans_bans`).
		WithArgs(int64(7), "Steve", "oops", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := &PostgresStore{db: db}
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.Deactivate(context.Background(), model.KindBan, 7, "Steve", "oops", 5)
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
}

func TestRunInTransactionRollback(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	s := &PostgresStore{db: db}
	wantErr := errors.New("boom")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
