package engine

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("creating mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewDB(mock), mock
}

func TestHandle_BeginCommit(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	h := db.Transaction()
	if h.Began() {
		t.Fatal("expected un-begun handle before Begin")
	}
	if h.Querier() != nil {
		t.Fatal("expected nil querier before Begin")
	}

	ctx := context.Background()
	if err := h.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !h.Began() {
		t.Error("expected begun handle after Begin")
	}
	if h.Querier() == nil {
		t.Error("expected transaction querier after Begin")
	}

	if err := h.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHandle_BeginTwice(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()

	h := db.Transaction()
	ctx := context.Background()
	if err := h.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := h.Begin(ctx); !errors.Is(err, ErrAlreadyBegun) {
		t.Errorf("expected ErrAlreadyBegun, got %v", err)
	}
}

func TestHandle_CloseBeforeBegin(t *testing.T) {
	db, _ := newMockDB(t)
	h := db.Transaction()
	ctx := context.Background()

	if err := h.Commit(ctx); !errors.Is(err, ErrNotBegun) {
		t.Errorf("commit: expected ErrNotBegun, got %v", err)
	}
	if err := h.Rollback(ctx); !errors.Is(err, ErrNotBegun) {
		t.Errorf("rollback: expected ErrNotBegun, got %v", err)
	}
}

func TestHandle_Rollback(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	h := db.Transaction()
	ctx := context.Background()
	if err := h.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := h.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHandle_ConstructionIsPure(t *testing.T) {
	db, mock := newMockDB(t)

	// no ExpectBegin: constructing a handle must not touch the pool
	_ = db.Transaction()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("construction performed I/O: %v", err)
	}
}

func TestHandle_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	h := db.Transaction()
	if err := h.Begin(context.Background()); err == nil {
		t.Fatal("expected begin failure")
	}
	if h.Began() {
		t.Error("expected handle to stay un-begun after a failed begin")
	}
}

func TestDB_SharedQuerier(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

	if _, err := db.Querier().Exec(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
