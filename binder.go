package reqtx

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mcastillo/reqtx/engine"
)

// binder lazily derives transaction-bound model variants for one request.
//
// the cache is keyed by lower-cased model name and is the recursion
// terminator: a model is inserted before its relations are rebound, so
// cyclic relation graphs resolve to the same bound instances instead of
// rebinding forever. the cache lives exactly as long as the request scope
// owning it.
type binder struct {
	registry *engine.Registry
	scope    *Scope

	mu    sync.Mutex
	cache map[string]*engine.Model
}

func newBinder(registry *engine.Registry, scope *Scope) *binder {
	return &binder{
		registry: registry,
		scope:    scope,
		cache:    make(map[string]*engine.Model),
	}
}

// bind returns the request's bound variant of the named model. when the
// request has no active transaction, binding degrades to the plain registered
// model with no derivation.
func (b *binder) bind(name string) (*engine.Model, error) {
	model, ok := b.registry.Model(name)
	if !ok {
		return nil, fmt.Errorf("reqtx: model %q not registered", name)
	}
	if !b.scope.Transactional() || !b.scope.began {
		return model, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bindLocked(model), nil
}

func (b *binder) bindLocked(model *engine.Model) *engine.Model {
	key := strings.ToLower(model.Name)
	if bound, ok := b.cache[key]; ok {
		return bound
	}

	bound := model.WithQuerier(b.scope.querier)
	// memoize before walking relations so cycles terminate here
	b.cache[key] = bound

	for _, rel := range model.Relations() {
		owner := b.bindLocked(rel.Owner())
		target := b.bindLocked(rel.Target())
		bound.Override(rel.Rebound(owner, target))
	}
	return bound
}
