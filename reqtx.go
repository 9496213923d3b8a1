// Package reqtx binds database transactions and transaction-bound model
// descriptors to individual requests in an echo pipeline.
//
// a Bridge wires a database handle and a model registry into three entry
// points: the Transaction middleware (open a transaction for the whole
// chain), the RollbackOnError middleware (error-channel rollback), and
// Wrap/WrapError (per-handler binding with capability injection). a wrapped
// handler receives its declared capabilities — the live scoped query
// interface and transaction-bound models — and the transaction is committed
// or rolled back exactly once, triggered explicitly, by the handler's
// returned error, or implicitly by the first response emission.
package reqtx

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcastillo/reqtx/engine"
)

// Hooks receive transaction lifecycle notifications. used to wire metrics or
// tracing without the bridge depending on either.
type Hooks struct {
	// OnBegin fires after every begin attempt.
	OnBegin func(err error, elapsed time.Duration)

	// OnClose fires after the winning close operation resolves.
	// op is "commit" or "rollback".
	OnClose func(op string, err error, elapsed time.Duration)

	// OnReplay fires after deferred response emissions replay, with the
	// number of queued operations that were flushed.
	OnReplay func(queued int)
}

// Bridge ties a database handle and model registry to the request pipeline.
type Bridge struct {
	db        *engine.DB
	registry  *engine.Registry
	queryName string
	hooks     Hooks
	logger    *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithQueryCapability overrides the capability name that resolves to the
// scoped query interface (default "query").
func WithQueryCapability(name string) Option {
	return func(b *Bridge) { b.queryName = name }
}

// WithHooks attaches lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(b *Bridge) { b.hooks = h }
}

// WithLogger attaches a structured logger. the bridge is silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New creates a Bridge.
func New(db *engine.DB, registry *engine.Registry, opts ...Option) *Bridge {
	b := &Bridge{
		db:        db,
		registry:  registry,
		queryName: DefaultQueryCapability,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}
