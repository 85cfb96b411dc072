// Package functions holds the table of named helper functions a model answer
// can invoke with <run:name key=value> tags.
package functions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no function is registered under a name.
	ErrNotFound = errors.New("function not found")
	// ErrInvalidArgs is returned when arguments are missing or have the wrong type.
	ErrInvalidArgs = errors.New("invalid function arguments")
)

// Func is a registered function. Results must be JSON-encodable.
type Func func(ctx context.Context, args Args) (interface{}, error)

// Param describes one named argument.
type Param struct {
	Name    string      `json:"name"`
	Default interface{} `json:"default,omitempty"`
}

// Info describes a registered function.
type Info struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
	Doc    string  `json:"doc"`
}

// Signature renders the call shape, e.g. "text/summarize(text, max_length=100)".
func (i Info) Signature() string {
	parts := make([]string, len(i.Params))
	for n, p := range i.Params {
		if p.Default != nil {
			parts[n] = fmt.Sprintf("%s=%v", p.Name, p.Default)
		} else {
			parts[n] = p.Name
		}
	}
	return i.Name + "(" + strings.Join(parts, ", ") + ")"
}

type entry struct {
	info Info
	fn   Func
}

// Registry maps names to functions. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{entries: make(map[string]entry)}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// NormalizeName converts "math.add" to "math/add" and trims surrounding slashes.
func NormalizeName(name string) string {
	return strings.Trim(strings.ReplaceAll(strings.TrimSpace(name), ".", "/"), "/")
}

// Register adds fn under info.Name, replacing any previous function of that name.
func (r *Registry) Register(info Info, fn Func) error {
	info.Name = NormalizeName(info.Name)
	if info.Name == "" {
		return fmt.Errorf("register: empty function name")
	}
	if fn == nil {
		return fmt.Errorf("register %s: nil function", info.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[info.Name]; ok {
		r.logger.Warn("replacing registered function", zap.String("function", info.Name))
	}
	r.entries[info.Name] = entry{info: info, fn: fn}
	return nil
}

// Lookup returns the description of name.
func (r *Registry) Lookup(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[NormalizeName(name)]
	return e.info, ok
}

// List returns every registered function sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted registered names.
func (r *Registry) Names() []string {
	infos := r.List()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Call runs the function registered under name. Unknown names wrap ErrNotFound.
func (r *Registry) Call(ctx context.Context, name string, args Args) (interface{}, error) {
	name = NormalizeName(name)
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if args == nil {
		args = Args{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := e.fn(ctx, args)
	if err != nil {
		r.logger.Debug("function failed", zap.String("function", name), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}
