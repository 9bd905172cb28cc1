package ecs

// World bundles the component registry and the resource container. Systems
// never receive the world directly; they read it through a Viewer and
// mutate it through Commands drained between stages.
type World struct {
	registry  *Registry
	resources *resourceContainer
}

// WorldOption configures a world at construction.
type WorldOption func(*World)

// NewWorld constructs a world with an empty registry and resource
// container.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		registry:  NewRegistry(),
		resources: newResourceContainer(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithRegistry overrides the default registry.
func WithRegistry(registry *Registry) WorldOption {
	return func(w *World) {
		if registry != nil {
			w.registry = registry
		}
	}
}

// Registry exposes the backing component registry.
func (w *World) Registry() *Registry {
	return w.registry
}
