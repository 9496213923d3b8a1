package reqtx

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestEnsureScope_Idempotent(t *testing.T) {
	pool := newFakePool()
	b := testBridge(t, pool)
	c := newTestContext(t)

	first := b.ensureScope(c, true)
	second := b.ensureScope(c, true)

	if first != second {
		t.Fatal("expected the same scope on repeated setup")
	}
	if From(c) != first {
		t.Error("expected From to return the attached scope")
	}
}

func TestEnsureScope_NoTransactionRequested(t *testing.T) {
	pool := newFakePool()
	b := testBridge(t, pool)
	c := newTestContext(t)

	s := b.ensureScope(c, false)

	if s.Transactional() {
		t.Error("expected non-transactional scope")
	}
	// closes are safe no-ops without a transaction
	if err := s.Commit(s.ctx()); err != nil {
		t.Errorf("commit without transaction: %v", err)
	}
	if err := s.Rollback(s.ctx()); err != nil {
		t.Errorf("rollback without transaction: %v", err)
	}
}

func TestScope_BeginRepointsQuerier(t *testing.T) {
	pool := newFakePool()
	b := testBridge(t, pool)
	c := newTestContext(t)

	s := b.ensureScope(c, true)
	if s.began {
		t.Fatal("expected lazily un-begun transaction")
	}
	if s.Querier() != b.db.Querier() {
		t.Fatal("expected shared querier before begin")
	}

	if err := s.begin(s.ctx()); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if s.Querier() != s.handle.Querier() {
		t.Error("expected transaction-bound querier after begin")
	}
	if pool.log.count("BEGIN") != 1 {
		t.Errorf("expected one BEGIN, got %v", pool.log.snapshot())
	}
}

func TestScope_Done(t *testing.T) {
	t.Run("nil_commits", func(t *testing.T) {
		pool := newFakePool()
		b := testBridge(t, pool)
		s := b.ensureScope(newTestContext(t), true)
		if err := s.begin(s.ctx()); err != nil {
			t.Fatalf("begin: %v", err)
		}

		if err := s.Done(nil); err != nil {
			t.Fatalf("done(nil): %v", err)
		}
		if pool.log.count("COMMIT") != 1 {
			t.Errorf("expected commit, got %v", pool.log.snapshot())
		}
	})

	t.Run("error_rolls_back_and_forwards", func(t *testing.T) {
		pool := newFakePool()
		b := testBridge(t, pool)
		s := b.ensureScope(newTestContext(t), true)
		if err := s.begin(s.ctx()); err != nil {
			t.Fatalf("begin: %v", err)
		}

		err := s.Done(errBoom)
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected cause forwarded, got %v", err)
		}
		if pool.log.count("ROLLBACK") != 1 {
			t.Errorf("expected rollback, got %v", pool.log.snapshot())
		}
	})

	t.Run("failed_rollback_joins_cause", func(t *testing.T) {
		pool := newFakePool()
		pool.tx.rollbackErr = errors.New("rollback failed")
		b := testBridge(t, pool)
		s := b.ensureScope(newTestContext(t), true)
		if err := s.begin(s.ctx()); err != nil {
			t.Fatalf("begin: %v", err)
		}

		err := s.Done(errBoom)
		if !errors.Is(err, errBoom) {
			t.Error("expected original cause preserved")
		}
		if !errors.Is(err, pool.tx.rollbackErr) {
			t.Error("expected rollback failure preserved")
		}
	})

	t.Run("non_error_value_is_misuse", func(t *testing.T) {
		pool := newFakePool()
		b := testBridge(t, pool)
		s := b.ensureScope(newTestContext(t), true)
		if err := s.begin(s.ctx()); err != nil {
			t.Fatalf("begin: %v", err)
		}

		err := s.Done(42)
		if !errors.Is(err, ErrContinuationMisuse) {
			t.Fatalf("expected ErrContinuationMisuse, got %v", err)
		}
		// misuse closes nothing
		if got := pool.log.count("COMMIT") + pool.log.count("ROLLBACK"); got != 0 {
			t.Errorf("expected no close, got %v", pool.log.snapshot())
		}
	})
}
