// forge/container/container.go
// Package container implements C3: containers are value-like, structurally
// frozen registries of providers. Registration mutates bindings; once a
// scope opens against a container the graph is expected to stay put.
// Grounded on core/module.go's ModuleManager dependency-walk (Imports,
// GetModuleDependencies) generalised into a proper DRO traversal, and on
// xdi/containers.py's `_dro_entries_`/`includes` for the inclusion-graph
// semantics spec.md §4.1/§4.3 describe.
package container

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"forge/errors"
	"forge/events"
	"forge/key"
	"forge/provider"
	"forge/resolver"
)

var containerSeq uint64

var (
	nameRegistry   = map[string]bool{}
	nameRegistryMu sync.Mutex
)

var nameValidate = validator.New()

// nameHolder mirrors key/token.go's tokenNameHolder: a container name is
// validated as a diagnostic identifier the same way an injection token's
// name is, not as untrusted input.
type nameHolder struct {
	Name string `validate:"required,printascii,excludesall= "`
}

// Container is an ordered multiset of providers per key, plus an
// inclusion graph of other containers whose bindings it transitively
// exposes (spec.md §4.1).
type Container struct {
	name string
	id   uint64

	mu       sync.RWMutex
	bindings map[key.Key][]provider.Provider
	included []*Container

	bus *events.Bus
}

// WithEvents attaches a lifecycle event bus; Register publishes
// events.ProviderRegistered against it from then on. A container with no
// bus attached publishes nothing (events.Bus's nil receiver is a no-op).
func (c *Container) WithEvents(bus *events.Bus) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = bus
	return c
}

// New creates an empty, named container. No two containers created in one
// process may share a name; a name stays taken for the life of the
// process — spec.md's "hash by name, equality by identity" becomes,
// in Go, an explicit collision check at construction time, since Go map
// keys already compare pointers by identity and need no help there.
func New(name string) (*Container, error) {
	if err := nameValidate.Struct(nameHolder{Name: name}); err != nil {
		return nil, fmt.Errorf("container.New: invalid container name %q: %w", name, err)
	}

	nameRegistryMu.Lock()
	defer nameRegistryMu.Unlock()
	if nameRegistry[name] {
		return nil, errors.Wrap(errors.ErrNameCollision, "container name %q already in use", name)
	}
	nameRegistry[name] = true

	return &Container{
		name:     name,
		id:       atomic.AddUint64(&containerSeq, 1),
		bindings: map[key.Key][]provider.Provider{},
	}, nil
}

func (c *Container) Name() string { return c.name }

// Identity satisfies provider.ContainerRef: equality by identity, not
// value, so two containers named alike never compare equal.
func (c *Container) Identity() any { return c }

// Includes reports whether other is c itself, or reachable through c's
// inclusion graph (reflexive and transitive, spec.md §4.1).
func (c *Container) Includes(other provider.ContainerRef) bool {
	return c.includes(other, map[uint64]bool{})
}

func (c *Container) includes(other provider.ContainerRef, seen map[uint64]bool) bool {
	if other == nil {
		return false
	}
	if other.Identity() == c.Identity() {
		return true
	}
	if seen[c.id] {
		return false
	}
	seen[c.id] = true
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, inc := range c.included {
		if inc.includes(other, seen) {
			return true
		}
	}
	return false
}

// Include appends containers to this one's inclusion set; duplicates are
// ignored. A container that (directly or transitively) already includes
// c is rejected — accepting it would make the inclusion graph cyclic.
func (c *Container) Include(containers ...*Container) (*Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, other := range containers {
		if other == nil || other == c {
			continue
		}
		if other.Includes(c) {
			return nil, errors.Wrap(errors.ErrContainerInclusionCycle, "including %q from %q would cycle", other.Name(), c.Name())
		}
		already := false
		for _, e := range c.included {
			if e == other {
				already = true
				break
			}
		}
		if !already {
			c.included = append(c.included, other)
		}
	}
	return c, nil
}

// DRO returns a deterministic depth-first, right-to-left traversal of the
// inclusion graph: each container appears exactly once, self last.
func (c *Container) DRO() []*Container {
	seen := map[uint64]bool{}
	var order []*Container
	var visit func(cur *Container)
	visit = func(cur *Container) {
		if seen[cur.id] {
			return
		}
		seen[cur.id] = true
		cur.mu.RLock()
		included := append([]*Container(nil), cur.included...)
		cur.mu.RUnlock()
		for i := len(included) - 1; i >= 0; i-- {
			visit(included[i])
		}
		order = append(order, cur)
	}
	c.mu.RLock()
	included := append([]*Container(nil), c.included...)
	c.mu.RUnlock()
	for i := len(included) - 1; i >= 0; i-- {
		visit(included[i])
	}
	if !seen[c.id] {
		order = append(order, c)
	}
	return order
}

// Register stores p under p.Provides(), appending to the key's ordered
// stack (last wins). Returns c for chaining.
func (c *Container) Register(p provider.Provider) *Container {
	bound := p.SetContainer(c)
	k := bound.Provides()

	c.mu.Lock()
	c.bindings[k] = append(c.bindings[k], bound)
	bus := c.bus
	c.mu.Unlock()

	bus.Publish(context.Background(), events.NewEvent(events.ProviderRegistered, events.ProviderRegisteredPayload{
		Container: c.name,
		Key:       k.String(),
	}))
	return c
}

func (c *Container) Alias(k, target key.Key) *Container {
	return c.Register(provider.NewAlias(k, target))
}

func (c *Container) Value(k key.Key, v any) *Container {
	return c.Register(provider.NewValue(k, v))
}

func (c *Container) Factory(k key.Key, fn any, args resolver.Arguments, desc resolver.Descriptor) *Container {
	return c.Register(provider.NewFactory(k, fn, args, desc))
}

func (c *Container) Singleton(k key.Key, fn any, args resolver.Arguments, desc resolver.Descriptor) *Container {
	return c.Register(provider.NewSingleton(k, fn, args, desc))
}

func (c *Container) Resource(k key.Key, fn any, teardown func(ctx context.Context, value any) error, args resolver.Arguments, desc resolver.Descriptor) *Container {
	return c.Register(provider.NewResource(k, fn, teardown, args, desc))
}

func (c *Container) Callable(k key.Key, fn any, mode provider.CallableMode, injectedArity int, desc resolver.Descriptor) *Container {
	return c.Register(provider.NewCallable(k, fn, mode, injectedArity, desc))
}

// Provide is a single umbrella entry point over the sugared constructors
// above, grounded directly on xdi/providers/util.py's
// ProviderRegistry.provide(): arg may be an already-built provider.Provider
// (registered as-is), a bare function (registered as a Factory producing
// k), or a reflect.Type (registered as a Factory that produces a fresh
// zero value of that type, Go's analogue of Python's "a class is its own
// no-arg constructor"). args/desc are ignored for the provider.Provider
// and reflect.Type cases, where they don't apply.
func (c *Container) Provide(arg any, k key.Key, args resolver.Arguments, desc resolver.Descriptor) (*Container, error) {
	switch v := arg.(type) {
	case provider.Provider:
		return c.Register(v), nil
	case reflect.Type:
		ctor := reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{v}, false), func([]reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.New(v).Elem()}
		}).Interface()
		return c.Factory(k, ctor, args, desc), nil
	default:
		if reflect.ValueOf(arg).Kind() != reflect.Func {
			return nil, fmt.Errorf("container.Provide: unsupported provider argument type %T (want provider.Provider, func, or reflect.Type)", arg)
		}
		return c.Factory(k, arg, args, desc), nil
	}
}

// Resolve implements spec.md §4.3's binding lookup: gather every
// provider stack along the DRO, concatenate newest-first, filter by
// CanBind, prefer non-default providers over defaults, and fold the
// survivors into one Provider via Substitute.
func (c *Container) Resolve(s provider.Scope, k key.Key) (provider.Provider, error) {
	order := c.DRO()
	var all []provider.Provider
	for _, cont := range order {
		cont.mu.RLock()
		all = append(all, cont.bindings[k]...)
		cont.mu.RUnlock()
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}

	var filtered []provider.Provider
	for _, p := range all {
		if p.CanBind(s, k) {
			filtered = append(filtered, p)
		}
	}

	hasNonDefault := false
	for _, p := range filtered {
		if !p.IsDefault() {
			hasNonDefault = true
			break
		}
	}
	if hasNonDefault {
		kept := filtered[:0:0]
		for _, p := range filtered {
			if !p.IsDefault() {
				kept = append(kept, p)
			}
		}
		filtered = kept
	}

	if len(filtered) == 0 {
		return nil, errors.WrapKey(errors.ErrUnresolvedKey, k.String())
	}
	primary := filtered[0]
	if len(filtered) > 1 {
		primary = primary.Substitute(filtered[1:]...)
	}
	return primary, nil
}
