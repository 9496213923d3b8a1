package reqtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mcastillo/reqtx/engine"
)

// scopeKey is the echo context key the request scope is stored under.
const scopeKey = "reqtx.scope"

// Scope is the per-request transaction context: an optional transaction
// handle, the query interface bound to it (or the shared one when no
// transaction was requested), the bound-model cache, and the response
// interceptor. it is attached to the echo context exactly once; a second
// setup call on an already-configured request is a no-op.
type Scope struct {
	bridge  *Bridge
	reqCtx  context.Context
	handle  *engine.Handle // nil when no transaction was requested
	coord   *coordinator   // nil when no transaction
	writer  *deferredWriter
	binder  *binder
	querier engine.Querier
	began   bool
}

// From returns the request's scope, or nil if none was attached.
func From(c echo.Context) *Scope {
	if s, ok := c.Get(scopeKey).(*Scope); ok {
		return s
	}
	return nil
}

// ensureScope attaches request- and response-scoped state, idempotently.
// the response side (interceptor, commit/rollback operations) is only created
// when a transaction is requested.
func (b *Bridge) ensureScope(c echo.Context, wantTx bool) *Scope {
	if s := From(c); s != nil {
		return s
	}

	s := &Scope{
		bridge:  b,
		reqCtx:  c.Request().Context(),
		querier: b.db.Querier(),
	}
	if wantTx {
		s.handle = b.db.Transaction()
		s.coord = newCoordinator(s.handle, b.hooks, b.logger)
		s.writer = interceptResponse(c.Response(), s.coord, s.reqCtx, b.hooks.OnReplay)
	}
	s.binder = newBinder(b.registry, s)
	c.Set(scopeKey, s)
	return s
}

// begin executes the transaction's begin operation and repoints the scope's
// query interface at the transaction.
func (s *Scope) begin(ctx context.Context) error {
	start := time.Now()
	err := s.handle.Begin(ctx)
	if s.bridge.hooks.OnBegin != nil {
		s.bridge.hooks.OnBegin(err, time.Since(start))
	}
	if err != nil {
		s.bridge.logger.Error("transaction begin failed", "error", err.Error())
		return err
	}
	s.querier = s.handle.Querier()
	s.began = true
	s.bridge.logger.Debug("transaction begun")
	return nil
}

// Transactional reports whether this request owns a transaction.
func (s *Scope) Transactional() bool {
	return s != nil && s.handle != nil
}

// Querier returns the request's scoped query interface: transaction-bound
// once the transaction has begun, the shared interface otherwise.
func (s *Scope) Querier() engine.Querier {
	return s.querier
}

// Model returns the transaction-bound variant of the named model, memoized
// for this request. without an active transaction the plain registered model
// is returned.
func (s *Scope) Model(name string) (*engine.Model, error) {
	return s.binder.bind(name)
}

// Commit closes the transaction with a commit, unless a close already won.
// a no-op returning nil when the request has no transaction.
func (s *Scope) Commit(ctx context.Context) error {
	if s == nil || s.coord == nil {
		return nil
	}
	return s.coord.commit(ctx)
}

// Rollback closes the transaction with a rollback, unless a close already
// won. safe to call when no transaction exists.
func (s *Scope) Rollback(ctx context.Context) error {
	if s == nil || s.coord == nil {
		return nil
	}
	return s.coord.rollback(ctx)
}

// Done is the continuation: handlers (and the wrapper) call it to hand the
// terminal outcome back to the pipeline. nil commits; an error rolls back and
// is forwarded; any other value is a usage violation and closes nothing.
//
// if the close operation itself fails, that failure is joined with the
// handler's error so neither is swallowed.
func (s *Scope) Done(v any) error {
	switch cause := v.(type) {
	case nil:
		return s.Commit(s.ctx())
	case error:
		if rbErr := s.Rollback(s.ctx()); rbErr != nil {
			return errors.Join(rbErr, cause)
		}
		return cause
	default:
		return fmt.Errorf("%w: got %T", ErrContinuationMisuse, v)
	}
}

// settle routes a terminal outcome through Done and then, if the close
// failed, reinstates the original response writer. called only by the wrapper
// and the middlewares, at the point where the handler can no longer emit.
func (s *Scope) settle(v any) error {
	err := s.Done(v)
	if s != nil && s.writer != nil {
		s.writer.restore()
	}
	return err
}

func (s *Scope) ctx() context.Context {
	if s == nil || s.reqCtx == nil {
		return context.Background()
	}
	return s.reqCtx
}
