package view

import (
	"fmt"
	"strings"
	"sync"

	"ai-docview-be/internal/pkg/logger"
)

type binding struct {
	processor   Processor
	legacyAlias string
}

// Registry binds view kinds to processors and legacy type names.
// It is the only place that knows which processor builds which view.
type Registry struct {
	mu       sync.RWMutex
	order    []Kind
	bindings map[Kind]binding
	aliases  map[string]Kind
	logger   logger.ILogger
}

func NewRegistry(log logger.ILogger) *Registry {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Registry{
		bindings: make(map[Kind]binding),
		aliases:  make(map[string]Kind),
		logger:   log,
	}
}

// Register binds kind to processor. Registering a kind twice replaces the
// previous binding, keeps its original position and returns true.
func (r *Registry) Register(kind Kind, processor Processor, legacyAlias string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, exists := r.bindings[kind]
	if exists {
		if previous.legacyAlias != "" {
			delete(r.aliases, strings.ToLower(previous.legacyAlias))
		}
		r.logger.Warn("ViewRegistry", "Overwriting existing view binding", map[string]interface{}{
			"view":         kind,
			"old_alias":    previous.legacyAlias,
			"new_alias":    legacyAlias,
			"registration": "conflict",
		})
	} else {
		r.order = append(r.order, kind)
	}

	r.bindings[kind] = binding{processor: processor, legacyAlias: legacyAlias}
	if legacyAlias != "" {
		r.aliases[strings.ToLower(legacyAlias)] = kind
	}
	return exists
}

// Processor returns the processor bound to kind.
func (r *Registry) Processor(kind Kind) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[kind]
	if !ok || b.processor == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, kind)
	}
	return b.processor, nil
}

// Views lists registered kinds in registration order.
func (r *Registry) Views() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) IsRegistered(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[kind]
	return ok
}

// LegacyAlias returns the backward-compatible type name for kind.
func (r *Registry) LegacyAlias(kind Kind) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[kind]
	if !ok || b.legacyAlias == "" {
		return "", false
	}
	return b.legacyAlias, true
}

// KindForAlias is the inverse of LegacyAlias.
func (r *Registry) KindForAlias(alias string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.aliases[strings.ToLower(alias)]
	return kind, ok
}

// Resolve maps a caller-supplied name (view kind or legacy alias, any case)
// to a registered kind.
func (r *Registry) Resolve(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty view name", ErrInvalidView)
	}
	if r.IsRegistered(Kind(normalized)) {
		return Kind(normalized), nil
	}
	if kind, ok := r.KindForAlias(normalized); ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidView, name)
}
