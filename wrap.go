package reqtx

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mcastillo/reqtx/engine"
)

// HandlerFunc is a standard continuation-style handler (leading arity 3):
// request, response and continuation are carried by the echo context and the
// returned error; the declared capabilities arrive resolved in args.
type HandlerFunc func(c echo.Context, args Args) error

// ErrorHandlerFunc is an error-channel handler (leading arity 4,
// error-first).
type ErrorHandlerFunc func(err error, c echo.Context, args Args) error

// Options configures one wrapped handler.
type Options struct {
	// Transaction forces a transaction for this handler even when the
	// pipeline-wide Transaction middleware did not run. when the middleware
	// did run, the existing transaction is used as-is.
	Transaction bool

	// Signature declares the handler's shape. validated at wrap time.
	Signature Signature

	// Wrap, when set, receives the would-be final bound handler and returns a
	// replacement invoked instead. argument resolution is unaffected.
	Wrap func(echo.HandlerFunc) echo.HandlerFunc
}

// Args carries the resolved capability arguments for one invocation, in
// declaration order.
type Args struct {
	queryName string
	ordered   []any
	byName    map[string]any
}

// Len returns the number of resolved capabilities.
func (a Args) Len() int {
	return len(a.ordered)
}

// At returns the i-th capability as declared in the signature.
func (a Args) At(i int) any {
	return a.ordered[i]
}

// Query returns the live scoped query interface, or nil if the signature did
// not declare the query capability.
func (a Args) Query() engine.Querier {
	if q, ok := a.byName[a.queryName].(engine.Querier); ok {
		return q
	}
	return nil
}

// Model returns the named bound model, or nil if not declared.
func (a Args) Model(name string) *engine.Model {
	if m, ok := a.byName[strings.ToLower(name)].(*engine.Model); ok {
		return m
	}
	return nil
}

// Wrap binds a standard handler. the declaration is validated immediately;
// an invalid signature panics at registration time, like a malformed
// net/http route pattern, so misconfiguration can never reach request time.
func (b *Bridge) Wrap(h HandlerFunc, opts Options) echo.HandlerFunc {
	if err := b.validateSignature(opts.Signature, leadingStandard); err != nil {
		panic(err)
	}

	bound := func(c echo.Context) error {
		return b.dispatch(c, opts, h)
	}
	if opts.Wrap != nil {
		bound = opts.Wrap(bound)
	}
	return bound
}

// WrapError binds an error-channel handler as middleware: it runs the rest of
// the chain and hands any resulting error, plus the declared capabilities, to
// h. like Wrap, an invalid declaration panics at registration time.
func (b *Bridge) WrapError(h ErrorHandlerFunc, opts Options) echo.MiddlewareFunc {
	if err := b.validateSignature(opts.Signature, leadingErrorChannel); err != nil {
		panic(err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		bound := func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			s := b.ensureScope(c, false)
			args, aerr := b.resolveArgs(s, opts.Signature)
			if aerr != nil {
				return aerr
			}
			return h(err, c, args)
		}
		if opts.Wrap != nil {
			bound = opts.Wrap(bound)
		}
		return bound
	}
}

// dispatch is the per-invocation state machine: ensure scopes, lazily begin,
// resolve capabilities, invoke, then route the outcome through the
// continuation.
func (b *Bridge) dispatch(c echo.Context, opts Options, h HandlerFunc) (err error) {
	s := b.ensureScope(c, opts.Transaction)

	// begin lazily unless a transaction middleware already did ("pre-begun").
	// a begin failure aborts before the handler and is surfaced directly:
	// there is no transaction to close.
	if s.Transactional() && !s.began {
		if berr := s.begin(s.ctx()); berr != nil {
			return berr
		}
	}

	args, aerr := b.resolveArgs(s, opts.Signature)
	if aerr != nil {
		return s.settle(aerr)
	}

	// a panicking handler is treated exactly like an explicit error-valued
	// continuation call: rollback, then forward.
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				perr = fmt.Errorf("reqtx: handler panic: %v", r)
			}
			err = s.settle(perr)
		}
	}()

	if herr := h(c, args); herr != nil {
		return s.settle(herr)
	}
	return s.settle(nil)
}

// resolveArgs materializes the signature's trailing capabilities against the
// scope: the query capability resolves to the live scoped query interface,
// everything else to a bound model.
func (b *Bridge) resolveArgs(s *Scope, sig Signature) (Args, error) {
	args := Args{
		queryName: b.queryName,
		ordered:   make([]any, 0, len(sig.Capabilities)),
		byName:    make(map[string]any, len(sig.Capabilities)),
	}
	for _, name := range sig.Capabilities {
		if name == b.queryName {
			q := s.Querier()
			args.ordered = append(args.ordered, q)
			args.byName[b.queryName] = q
			continue
		}
		m, err := s.Model(name)
		if err != nil {
			return Args{}, err
		}
		args.ordered = append(args.ordered, m)
		args.byName[strings.ToLower(name)] = m
	}
	return args, nil
}
