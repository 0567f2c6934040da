package jclouds

import "context"

// PropertiesBuilder assembles the flattened configuration a context builder
// consumes. Builders are chainable; each setter returns the builder.
type PropertiesBuilder interface {
	// Provider records the provider identifier. Applied on every build.
	Provider(name string) PropertiesBuilder

	// APIVersion records the provider API version.
	APIVersion(version string) PropertiesBuilder

	// Credentials records the identity/credential pair.
	Credentials(identity, credential string) PropertiesBuilder

	// Endpoint records the provider endpoint URI.
	Endpoint(uri string) PropertiesBuilder

	// Build finalizes the accumulated settings into Properties.
	Build() (Properties, error)
}

// ContextBuilder constructs a provider context from finalized properties.
// Implementations are provider-specific; providers without one are served
// by the generic builder in this package.
type ContextBuilder interface {
	// WithModules attaches wiring modules applied during BuildContext.
	WithModules(modules ...Module) ContextBuilder

	// BuildContext produces the runnable provider context.
	BuildContext(ctx context.Context) (Context, error)
}

// Context is a runnable provider context. The concrete client surfaces are
// exposed as opaque values; provider packages additionally expose typed
// accessors on their own context types.
type Context interface {
	// ID returns the unique identifier assigned at build time.
	ID() string

	// Provider returns the provider name the context was built for.
	Provider() string

	// Endpoint returns the endpoint the context is bound to, if any.
	Endpoint() string

	// Identity returns the identity the context authenticates as, if any.
	Identity() string

	// SyncAPI returns the synchronous client capability, if bound.
	SyncAPI() any

	// AsyncAPI returns the asynchronous client capability, if bound.
	AsyncAPI() any

	// Close releases resources held by the context.
	Close() error
}

// Module is an opaque wiring hook attached to a context builder. During
// BuildContext the builder passes its wiring surface to each module in
// order; what the target is depends on the builder (the generic builder
// passes *BasicContext).
type Module interface {
	Configure(target any) error
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc func(target any) error

// Configure implements Module.
func (f ModuleFunc) Configure(target any) error { return f(target) }

// PropertiesBuilderFactory creates a properties builder seeded with the
// caller's override properties.
type PropertiesBuilderFactory func(overrides Properties) PropertiesBuilder

// ContextBuilderFactory creates a context builder from the resolved
// capability refs and the finalized properties.
type ContextBuilderFactory func(sync, async TypeRef, props Properties) (ContextBuilder, error)
