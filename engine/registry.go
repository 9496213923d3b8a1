package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// RelSuffix is the accessor naming convention: every relation accessor name
// must end in "Rel" so relations are enumerable without guessing.
const RelSuffix = "Rel"

// RelationKind classifies a relation accessor.
type RelationKind int

const (
	HasMany RelationKind = iota
	HasOne
	BelongsTo
)

func (k RelationKind) String() string {
	switch k {
	case HasMany:
		return "has_many"
	case HasOne:
		return "has_one"
	case BelongsTo:
		return "belongs_to"
	default:
		return "unknown"
	}
}

// Relation describes one relation accessor on a model. the owner and target
// pointers are resolved at registration, so cyclic model graphs are
// representable by name.
type Relation struct {
	Name       string
	Kind       RelationKind
	TargetName string
	ForeignKey string

	owner  *Model
	target *Model
}

// Owner returns the model declaring this relation.
func (r *Relation) Owner() *Model {
	return r.owner
}

// Target returns the related model.
func (r *Relation) Target() *Model {
	return r.target
}

// Rebound returns a fresh descriptor identical to r but pointing at the given
// owner and target models. used to repoint relations at transaction-bound
// model variants without touching the registered descriptor.
func (r *Relation) Rebound(owner, target *Model) *Relation {
	return &Relation{
		Name:       r.Name,
		Kind:       r.Kind,
		TargetName: r.TargetName,
		ForeignKey: r.ForeignKey,
		owner:      owner,
		target:     target,
	}
}

// Model is a named model type: a table, a query interface, and a set of
// relation accessors. models registered in a Registry carry the shared query
// interface; WithQuerier derives per-transaction variants.
type Model struct {
	Name  string
	Table string

	querier   Querier
	relations map[string]*Relation
	// overrides maps relation name to a rebound descriptor, consulted before
	// the registered default. populated only on derived models.
	overrides map[string]*Relation
}

// NewModel declares a model. relations are added with HasMany, HasOne and
// BelongsTo before registration.
func NewModel(name, table string) *Model {
	return &Model{
		Name:      name,
		Table:     table,
		relations: make(map[string]*Relation),
	}
}

// HasMany declares a one-to-many relation accessor.
func (m *Model) HasMany(accessor, target, foreignKey string) *Model {
	return m.relate(accessor, HasMany, target, foreignKey)
}

// HasOne declares a one-to-one relation accessor.
func (m *Model) HasOne(accessor, target, foreignKey string) *Model {
	return m.relate(accessor, HasOne, target, foreignKey)
}

// BelongsTo declares the owning side of a relation.
func (m *Model) BelongsTo(accessor, target, foreignKey string) *Model {
	return m.relate(accessor, BelongsTo, target, foreignKey)
}

func (m *Model) relate(accessor string, kind RelationKind, target, foreignKey string) *Model {
	m.relations[accessor] = &Relation{
		Name:       accessor,
		Kind:       kind,
		TargetName: target,
		ForeignKey: foreignKey,
		owner:      m,
	}
	return m
}

// Querier returns the query interface this model variant is bound to.
func (m *Model) Querier() Querier {
	return m.querier
}

// WithQuerier derives a variant of the model bound to q. the derived model
// shares the registered relation descriptors until overrides replace them.
func (m *Model) WithQuerier(q Querier) *Model {
	return &Model{
		Name:      m.Name,
		Table:     m.Table,
		querier:   q,
		relations: m.relations,
		overrides: make(map[string]*Relation),
	}
}

// Override installs a rebound relation descriptor on a derived model,
// shadowing the registered default of the same name.
func (m *Model) Override(r *Relation) {
	if m.overrides == nil {
		m.overrides = make(map[string]*Relation)
	}
	m.overrides[r.Name] = r
}

// Relation returns the named relation accessor, preferring overrides.
func (m *Model) Relation(name string) (*Relation, bool) {
	if r, ok := m.overrides[name]; ok {
		return r, true
	}
	r, ok := m.relations[name]
	return r, ok
}

// Relations enumerates the model's relation accessors with overrides applied,
// sorted by accessor name.
func (m *Model) Relations() []*Relation {
	names := make([]string, 0, len(m.relations))
	for name := range m.relations {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Relation, 0, len(names))
	for _, name := range names {
		r, _ := m.Relation(name)
		out = append(out, r)
	}
	return out
}

// Registry holds the application's models, keyed case-insensitively by name,
// all bound to the shared query interface.
type Registry struct {
	mu     sync.RWMutex
	shared Querier
	models map[string]*Model
}

// NewRegistry creates a registry whose models default to the shared querier.
func NewRegistry(shared Querier) *Registry {
	return &Registry{
		shared: shared,
		models: make(map[string]*Model),
	}
}

// Register adds models and links their relation targets. registering all
// related models in one call lets cyclic relation graphs resolve.
func (r *Registry) Register(models ...*Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range models {
		key := strings.ToLower(m.Name)
		if _, exists := r.models[key]; exists {
			return fmt.Errorf("engine: model %q already registered", m.Name)
		}
		m.querier = r.shared
		r.models[key] = m
	}

	// second pass: resolve relation targets now that every model is present
	for _, m := range models {
		for name, rel := range m.relations {
			if !strings.HasSuffix(name, RelSuffix) {
				return fmt.Errorf("engine: relation accessor %s.%s must end in %q", m.Name, name, RelSuffix)
			}
			target, ok := r.models[strings.ToLower(rel.TargetName)]
			if !ok {
				return fmt.Errorf("engine: relation %s.%s targets unregistered model %q", m.Name, name, rel.TargetName)
			}
			rel.target = target
		}
	}
	return nil
}

// Model looks up a registered model by name, case-insensitively.
func (r *Registry) Model(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[strings.ToLower(name)]
	return m, ok
}
