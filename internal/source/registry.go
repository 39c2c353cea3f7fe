package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a store from options.
type Factory func(ctx context.Context, opts Options) (Store, error)

type registration struct {
	description string
	factory     Factory
}

// Registry maps store kinds to their factories.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]registration)}
}

// Register adds a store kind. Duplicate registrations overwrite the previous entry.
func (r *Registry) Register(kind, description string, f Factory) error {
	if kind == "" {
		return fmt.Errorf("store kind cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("store kind %q: nil factory", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = registration{description: description, factory: f}
	return nil
}

// New builds a store of the given kind.
func (r *Registry) New(ctx context.Context, kind string, opts Options) (Store, error) {
	r.mu.RLock()
	reg, ok := r.kinds[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, &ErrStoreNotFound{Kind: kind}
	}
	s, err := reg.factory(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("store %q: %w", kind, err)
	}
	return s, nil
}

// KindInfo describes a registered kind.
type KindInfo struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// Kinds lists registered kinds sorted by name.
func (r *Registry) Kinds() []KindInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]KindInfo, 0, len(r.kinds))
	for k, reg := range r.kinds {
		out = append(out, KindInfo{Kind: k, Description: reg.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

var global = NewRegistry()

func init() {
	_ = global.Register(KindHTTP, "static files over HTTP(S), e.g. raw.githubusercontent.com", newHTTPFromOptions)
	_ = global.Register(KindFile, "local directory", newFileFromOptions)
	_ = global.Register(KindS3, "S3-compatible bucket (AWS S3, Cloudflare R2, MinIO)", newS3FromOptions)
}

// Global returns the default registry with the built-in store kinds.
func Global() *Registry {
	return global
}

// New builds a store from the global registry.
func New(ctx context.Context, kind string, opts Options) (Store, error) {
	return global.New(ctx, kind, opts)
}
