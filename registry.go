package mapper

import (
	"sort"

	"github.com/tinywasm/fmt"
)

// Option configures a Registry.
type Option func(*Registry)

// WithQueryLogger routes every statement to l.
func WithQueryLogger(l QueryLogger) Option {
	return func(r *Registry) {
		if l == nil {
			l = discardLog{}
		}
		r.log = l
	}
}

// Registry maps mapper identifiers to their definitions and builds mappers
// bound to one adapter. Relations name their target through the registry.
type Registry struct {
	adapter Adapter
	defs    map[string]*schema
	log     QueryLogger
}

// NewRegistry creates a new Registry instance.
func NewRegistry(adapter Adapter, opts ...Option) *Registry {
	r := &Registry{
		adapter: adapter,
		defs:    make(map[string]*schema),
		log:     NewQueryLog(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates def and stores it under name, replacing any previous one.
func (r *Registry) Register(name string, def Definition) error {
	s, err := compile(name, def)
	if err != nil {
		return err
	}
	r.defs[name] = s
	return nil
}

// Check verifies that every relation target is registered.
func (r *Registry) Check() error {
	for _, name := range r.Names() {
		for _, rel := range r.defs[name].Relations {
			if _, ok := r.defs[rel.Mapper]; !ok {
				return wrap(ErrUnknownMapper, fmt.Sprintf("%s (relation %s.%s)", rel.Mapper, name, rel.Name))
			}
		}
	}
	return nil
}

// Mapper returns a fresh mapper for name. Each call yields its own active query state.
func (r *Registry) Mapper(name string) (*Mapper, error) {
	s, ok := r.defs[name]
	if !ok {
		return nil, wrap(ErrUnknownMapper, name)
	}
	return &Mapper{
		schema:   s,
		registry: r,
		adapter:  r.adapter,
		log:      r.log,
	}, nil
}

// Names returns the registered identifiers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Adapter returns the underlying adapter instance.
func (r *Registry) Adapter() Adapter { return r.adapter }

// QueryLogger returns the logger shared by this registry's mappers.
func (r *Registry) QueryLogger() QueryLogger { return r.log }

// withAdapter returns a registry sharing r's definitions and query logger
// but issuing statements through a.
func (r *Registry) withAdapter(a Adapter) *Registry {
	return &Registry{adapter: a, defs: r.defs, log: r.log}
}
