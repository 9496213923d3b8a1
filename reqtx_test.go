package reqtx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcastillo/reqtx/engine"
)

// opLog records the order of operations the fakes see.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) record(op string) {
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *opLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.ops))
	copy(out, l.ops)
	return out
}

func (l *opLog) count(op string) int {
	n := 0
	for _, o := range l.snapshot() {
		if o == op {
			n++
		}
	}
	return n
}

// fakeTx satisfies pgx.Tx for the methods the engine touches. the embedded
// interface panics on anything else, which is exactly what a test should do.
type fakeTx struct {
	pgx.Tx

	log         *opLog
	commitErr   error
	rollbackErr error

	// commitGate, when set, blocks Commit until the channel closes.
	commitGate chan struct{}
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.log.record("tx:" + sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (t *fakeTx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	t.log.record("tx-query:" + sql)
	return nil, nil
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.log.record("tx-queryrow:" + sql)
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitGate != nil {
		<-t.commitGate
	}
	t.log.record("COMMIT")
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.log.record("ROLLBACK")
	return t.rollbackErr
}

// fakePool satisfies engine.Pool.
type fakePool struct {
	log      *opLog
	beginErr error
	tx       *fakeTx
}

func newFakePool() *fakePool {
	log := &opLog{}
	return &fakePool{
		log: log,
		tx:  &fakeTx{log: log},
	}
}

func (p *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	p.log.record("pool:" + sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (p *fakePool) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	p.log.record("pool-query:" + sql)
	return nil, nil
}

func (p *fakePool) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	p.log.record("pool-queryrow:" + sql)
	return nil
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) {
	if p.beginErr != nil {
		p.log.record("BEGIN-FAILED")
		return nil, p.beginErr
	}
	p.log.record("BEGIN")
	return p.tx, nil
}

// testRegistry builds the blog model graph used across the tests, including
// both relation cycles.
func testRegistry(t *testing.T, shared engine.Querier) *engine.Registry {
	t.Helper()
	r := engine.NewRegistry(shared)
	err := r.Register(
		engine.NewModel("Author", "authors").
			HasMany("ArticlesRel", "Article", "author_id"),
		engine.NewModel("Article", "articles").
			BelongsTo("AuthorRel", "Author", "author_id").
			HasMany("CommentsRel", "Comment", "article_id"),
		engine.NewModel("Comment", "comments").
			BelongsTo("ArticleRel", "Article", "article_id"),
	)
	if err != nil {
		t.Fatalf("registering models: %v", err)
	}
	return r
}

func testBridge(t *testing.T, pool *fakePool, opts ...Option) *Bridge {
	t.Helper()
	registry := testRegistry(t, pool)
	return New(engine.NewDB(pool), registry, opts...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// begunHandle returns a handle whose transaction has already begun.
func begunHandle(t *testing.T, pool *fakePool) *engine.Handle {
	t.Helper()
	h := engine.NewDB(pool).Transaction()
	if err := h.Begin(context.Background()); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return h
}

var errBoom = fmt.Errorf("boom")
