package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"claim-navigator/internal/infra/adapter/persistence/postgres"
	"claim-navigator/pkg/ratelimit"
)

func TestCounterStore_Increment(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2024, 1, 15, 10, 30, 17, 0, time.UTC)
	window := time.Minute
	bucket := ratelimit.WindowStartFor(now, window)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO rate_windows`)).
		WithArgs("key:user-1", bucket).
		WillReturnRows(sqlmock.NewRows([]string{"window_start", "count", "blocked_until"}).
			AddRow(bucket, 3, nil))

	store := postgres.NewCounterStore(db)
	w, err := store.Increment(context.Background(), "key:user-1", now, window)
	if err != nil {
		t.Fatalf("Increment err=%v", err)
	}
	if w.Count != 3 {
		t.Errorf("Count = %d, want 3", w.Count)
	}
	if !w.WindowStart.Equal(bucket) {
		t.Errorf("WindowStart = %v, want %v", w.WindowStart, bucket)
	}
	if !w.BlockedUntil.IsZero() {
		t.Errorf("BlockedUntil = %v, want zero for NULL column", w.BlockedUntil)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCounterStore_Increment_CarriesBlock(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2024, 1, 15, 10, 30, 17, 0, time.UTC)
	window := time.Minute
	bucket := ratelimit.WindowStartFor(now, window)
	blockedUntil := now.Add(5 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO rate_windows`)).
		WithArgs("key:user-1", bucket).
		WillReturnRows(sqlmock.NewRows([]string{"window_start", "count", "blocked_until"}).
			AddRow(bucket, 1, blockedUntil))

	store := postgres.NewCounterStore(db)
	w, err := store.Increment(context.Background(), "key:user-1", now, window)
	if err != nil {
		t.Fatalf("Increment err=%v", err)
	}
	if !w.BlockedUntil.Equal(blockedUntil) {
		t.Errorf("BlockedUntil = %v, want %v", w.BlockedUntil, blockedUntil)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCounterStore_Increment_StoreError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO rate_windows`)).
		WillReturnError(errors.New("connection refused"))

	store := postgres.NewCounterStore(db)
	_, err := store.Increment(context.Background(), "key:user-1", time.Now(), time.Minute)
	if err == nil {
		t.Fatal("Increment err=nil, want error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCounterStore_Block(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	until := time.Date(2024, 1, 15, 10, 35, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO rate_windows`)).
		WithArgs("key:user-1", until).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := postgres.NewCounterStore(db)
	if err := store.Block(context.Background(), "key:user-1", until); err != nil {
		t.Fatalf("Block err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCounterStore_BlockedUntil(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	until := time.Date(2024, 1, 15, 10, 35, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT blocked_until FROM rate_windows`)).
		WithArgs("key:user-1").
		WillReturnRows(sqlmock.NewRows([]string{"blocked_until"}).AddRow(until))

	store := postgres.NewCounterStore(db)
	got, err := store.BlockedUntil(context.Background(), "key:user-1")
	if err != nil {
		t.Fatalf("BlockedUntil err=%v", err)
	}
	if !got.Equal(until) {
		t.Errorf("BlockedUntil = %v, want %v", got, until)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCounterStore_BlockedUntil_UnknownKey(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT blocked_until FROM rate_windows`)).
		WithArgs("key:nobody").
		WillReturnError(sql.ErrNoRows)

	store := postgres.NewCounterStore(db)
	got, err := store.BlockedUntil(context.Background(), "key:nobody")
	if err != nil {
		t.Fatalf("BlockedUntil err=%v", err)
	}
	if !got.IsZero() {
		t.Errorf("BlockedUntil = %v, want zero time for unknown key", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCounterStore_Cleanup(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	cutoff := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM rate_windows`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 17))

	store := postgres.NewCounterStore(db)
	if err := store.Cleanup(context.Background(), cutoff); err != nil {
		t.Fatalf("Cleanup err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCounterStore_KeyCount(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM rate_windows`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(128))

	store := postgres.NewCounterStore(db)
	count, err := store.KeyCount(context.Background())
	if err != nil {
		t.Fatalf("KeyCount err=%v", err)
	}
	if count != 128 {
		t.Errorf("KeyCount = %d, want 128", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
