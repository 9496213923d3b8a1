package reqtx

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcastillo/reqtx/engine"
)

// closeOp identifies which close operation won the transaction.
type closeOp int

const (
	opNone closeOp = iota
	opCommit
	opRollback
)

func (o closeOp) String() string {
	switch o {
	case opCommit:
		return "commit"
	case opRollback:
		return "rollback"
	default:
		return "none"
	}
}

// coordinator owns the close-exactly-once invariant for one transaction.
//
// state moves not-started -> closing -> closed and never reverses. whichever
// of commit or rollback arrives first is the one executed against the engine;
// every later trigger, from any goroutine, blocks until that execution
// finishes and observes the same memoized result. a failed close leaves the
// transaction defunct: the state never reaches closed, but the failure is
// still the memoized result and nothing is retried.
type coordinator struct {
	handle *engine.Handle
	hooks  Hooks
	logger *slog.Logger

	mu       sync.Mutex
	started  bool
	op       closeOp
	err      error
	done     chan struct{}
	onClosed func(failed bool)
}

func newCoordinator(handle *engine.Handle, hooks Hooks, logger *slog.Logger) *coordinator {
	return &coordinator{
		handle: handle,
		hooks:  hooks,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// setOnClosed registers the response interceptor's drain/discard callback.
// must be called before any close trigger can fire.
func (co *coordinator) setOnClosed(fn func(failed bool)) {
	co.mu.Lock()
	co.onClosed = fn
	co.mu.Unlock()
}

func (co *coordinator) commit(ctx context.Context) error {
	return co.close(ctx, opCommit)
}

func (co *coordinator) rollback(ctx context.Context) error {
	return co.close(ctx, opRollback)
}

// close executes op if no close has started yet; otherwise it waits for the
// winning operation and returns its result unchanged.
func (co *coordinator) close(ctx context.Context, op closeOp) error {
	co.mu.Lock()
	if co.started {
		done := co.done
		co.mu.Unlock()
		<-done
		return co.err
	}
	co.started = true
	co.op = op
	co.mu.Unlock()

	start := time.Now()
	var err error
	switch op {
	case opCommit:
		err = co.handle.Commit(ctx)
	case opRollback:
		err = co.handle.Rollback(ctx)
	}

	co.mu.Lock()
	co.err = err
	cb := co.onClosed
	co.mu.Unlock()
	close(co.done)

	if cb != nil {
		cb(err != nil)
	}
	if co.hooks.OnClose != nil {
		co.hooks.OnClose(op.String(), err, time.Since(start))
	}
	if err != nil {
		co.logger.Error("transaction close failed",
			"op", op.String(),
			"error", err.Error(),
		)
	} else {
		co.logger.Debug("transaction closed", "op", op.String())
	}
	return err
}

// outcome reports the winning operation and its result, without triggering
// anything. returns opNone while no close has started.
func (co *coordinator) outcome() (closeOp, error) {
	co.mu.Lock()
	defer co.mu.Unlock()
	if !co.started {
		return opNone, nil
	}
	select {
	case <-co.done:
		return co.op, co.err
	default:
		return co.op, nil
	}
}
