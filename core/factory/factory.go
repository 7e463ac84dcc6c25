package factory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownType is returned by Create for a type with no registered factory.
var ErrUnknownType = errors.New("unknown module type")

// ModuleConfig names a module implementation and carries its settings.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory builds a T from raw settings.
type Factory[T any] func(map[string]any) (T, error)

// Registry maps type names to factories. It is safe for concurrent use.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry returns an empty registry. kind names the modules in errors,
// e.g. "geocoder".
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, factories: make(map[string]Factory[T])}
}

// Register adds f under name. Names are unique.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	if f == nil {
		return fmt.Errorf("%s factory %q is nil", r.kind, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%s factory %q already registered", r.kind, name)
	}
	r.factories[name] = f
	return nil
}

// Names lists the registered types in order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create builds the module named by cfg.Type. Errors from the factory are
// wrapped with the module kind and type.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Type]
	r.mu.RUnlock()
	var zero T
	if !ok {
		return zero, fmt.Errorf("%w: %s %q (available: %s)", ErrUnknownType, r.kind, cfg.Type, strings.Join(r.Names(), ", "))
	}
	m, err := f(cfg.Conf)
	if err != nil {
		return zero, fmt.Errorf("%s %q: %w", r.kind, cfg.Type, err)
	}
	return m, nil
}

// Decode fills out from raw settings using json tags. Settings coming from
// environment variables arrive as strings, so scalars are converted and
// durations such as "30s" are parsed. Unknown keys are rejected.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
