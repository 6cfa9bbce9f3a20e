package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// WriteObserver receives every change in a registry. Implementations must
// not block; they run on the writer's goroutine.
type WriteObserver interface {
	ObserveChange(Change)
}

// WriteObserverFunc adapts a function to WriteObserver.
type WriteObserverFunc func(Change)

// ObserveChange implements WriteObserver.
func (f WriteObserverFunc) ObserveChange(c Change) { f(c) }

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	fps       float64
	logger    *slog.Logger
	observers []WriteObserver
	now       func() time.Time
}

// WithDefaultFPS sets the initial playback rate of the animation store.
func WithDefaultFPS(fps float64) Option {
	return func(c *registryConfig) {
		c.fps = fps
	}
}

// WithLogger sets the logger used for change tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// WithObserver adds an observer that sees every change.
func WithObserver(o WriteObserver) Option {
	return func(c *registryConfig) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithClock overrides the time source used to stamp changes.
func WithClock(now func() time.Time) Option {
	return func(c *registryConfig) {
		c.now = now
	}
}

// storeAliases maps the front-end's original store ids onto registry names.
var storeAliases = map[string]string{
	"rendererStore": RendererStoreName,
	"skeleton":      FetchStoreName,
}

// Registry is the container of all shared stores. Create one per running
// application (or per test) and pass it to the components that need it.
type Registry struct {
	animation *AnimationState
	renderer  *RendererHandles
	fetch     *FetchTrigger

	logger    *slog.Logger
	observers []WriteObserver
	now       func() time.Time

	mu      sync.RWMutex
	subs    []registrySub
	nextSub uint64
}

type registrySub struct {
	id uint64
	fn func(Change)
}

// NewRegistry creates a registry whose stores hold their default values.
func NewRegistry(opts ...Option) *Registry {
	cfg := registryConfig{
		fps: DefaultFPS,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	r := &Registry{
		logger:    cfg.logger.With("component", "store"),
		observers: cfg.observers,
		now:       cfg.now,
	}
	r.animation = newAnimationState(cfg.fps, r.emitter(AnimationStoreName))
	r.renderer = newRendererHandles(r.emitter(RendererStoreName))
	r.fetch = newFetchTrigger(r.emitter(FetchStoreName))
	return r
}

// Animation returns the animation store.
func (r *Registry) Animation() *AnimationState { return r.animation }

// Renderer returns the renderer handle store.
func (r *Registry) Renderer() *RendererHandles { return r.renderer }

// Fetch returns the fetch trigger store.
func (r *Registry) Fetch() *FetchTrigger { return r.fetch }

// Names returns the registry names of all stores, sorted.
func (r *Registry) Names() []string {
	names := []string{AnimationStoreName, RendererStoreName, FetchStoreName}
	sort.Strings(names)
	return names
}

// Lookup returns the store registered under name. The front-end's original
// store ids ("rendererStore", "skeleton") are accepted as aliases.
func (r *Registry) Lookup(name string) (Store, bool) {
	if alias, ok := storeAliases[name]; ok {
		name = alias
	}
	switch name {
	case AnimationStoreName:
		return r.animation, true
	case RendererStoreName:
		return r.renderer, true
	case FetchStoreName:
		return r.fetch, true
	}
	return nil, false
}

// Snapshot is a point-in-time copy of every store. Stores are read one
// after another, so a snapshot taken during concurrent writes may mix
// values from before and after a write to another store.
type Snapshot struct {
	Animation AnimationSnapshot `json:"animation"`
	Renderer  RendererSnapshot  `json:"renderer"`
	Fetch     FetchSnapshot     `json:"fetch"`
}

// Snapshot returns the current value of every field of every store.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Animation: r.animation.Snapshot(),
		Renderer:  r.renderer.Snapshot(),
		Fetch:     r.fetch.Snapshot(),
	}
}

// Subscribe registers fn to receive every change in the registry, in the
// order the changes happen. The returned function removes the subscription.
func (r *Registry) Subscribe(fn func(Change)) (unsubscribe func()) {
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.subs = append(r.subs, registrySub{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, s := range r.subs {
				if s.id == id {
					r.subs = append(r.subs[:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// emitter returns the emitFunc bound to one store.
func (r *Registry) emitter(storeName string) emitFunc {
	return func(field string, value any) {
		r.publish(Change{
			Store: storeName,
			Field: field,
			Value: value,
			At:    r.now(),
		})
	}
}

// publish fans a change out to observers and subscribers.
func (r *Registry) publish(c Change) {
	r.logger.Debug("store changed", "store", c.Store, "field", c.Field, "value", c.Value)

	for _, o := range r.observers {
		o.ObserveChange(c)
	}

	r.mu.RLock()
	subs := make([]registrySub, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	for _, s := range subs {
		s.fn(c)
	}
}

// registryKey is the context key for the registry.
var registryKey = &struct{ name string }{"Registry"}

// NewContext returns a copy of ctx carrying r.
func NewContext(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey, r)
}

// FromContext returns the registry carried by ctx, if any.
func FromContext(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryKey).(*Registry)
	return r, ok && r != nil
}
