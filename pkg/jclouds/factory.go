package jclouds

import (
	"context"
	"errors"
	"log/slog"
)

// Factory resolves provider configuration into context specs and drives
// context assembly. A Factory is immutable after construction and safe for
// concurrent use: every call works on its own flattened view of the base
// properties and never mutates shared state.
type Factory struct {
	base     Properties
	registry *Registry
	logger   *slog.Logger
}

// FactoryOption represents a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithBaseProperties sets the layered base configuration (bundled defaults
// plus process-wide overrides, typically loaded by the config package).
func WithBaseProperties(props Properties) FactoryOption {
	return func(f *Factory) {
		f.base = props
	}
}

// WithRegistry sets the registry consulted for builder sets and capability
// types.
func WithRegistry(registry *Registry) FactoryOption {
	return func(f *Factory) {
		f.registry = registry
	}
}

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a factory with the given options.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		registry: NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Registry returns the registry the factory consults.
func (f *Factory) Registry() *Registry { return f.registry }

// ResolveSpec merges the base configuration with the caller's overrides and
// extracts the settings for provider into a ContextSpec.
//
// The identity and credential arguments are fallbacks: a
// "<provider>.identity" / "<provider>.credential" entry in the merged
// configuration wins over them. Endpoint and API version come from
// configuration only. A missing setting is not an error; the corresponding
// spec field stays empty.
func (f *Factory) ResolveSpec(provider, identity, credential string, overrides Properties) (ContextSpec, error) {
	if provider == "" {
		return ContextSpec{}, &ConfigurationError{Setting: KeyProvider, Err: ErrProviderRequired}
	}
	merged := f.base.WithProperties(overrides)

	spec := ContextSpec{Provider: provider}
	if v, ok := merged.ProviderSetting(provider, SettingIdentity); ok {
		spec.Identity = v
	} else {
		spec.Identity = identity
	}
	if v, ok := merged.ProviderSetting(provider, SettingCredential); ok {
		spec.Credential = v
	} else {
		spec.Credential = credential
	}
	spec.Endpoint, _ = merged.ProviderSetting(provider, SettingEndpoint)
	spec.APIVersion, _ = merged.ProviderSetting(provider, SettingAPIVersion)

	var err error
	if spec.Sync, err = f.resolveType(provider, SettingSync, merged); err != nil {
		return ContextSpec{}, err
	}
	if spec.Async, err = f.resolveType(provider, SettingAsync, merged); err != nil {
		return ContextSpec{}, err
	}

	set, err := f.resolveBuilders(provider, merged)
	if err != nil {
		return ContextSpec{}, err
	}
	spec.PropertiesBuilder = set.PropertiesBuilder
	spec.ContextBuilder = set.ContextBuilder

	f.logger.Debug("resolved context spec",
		"provider", provider,
		"endpoint", spec.Endpoint,
		"api_version", spec.APIVersion,
		"sync", spec.Sync.Name,
		"async", spec.Async.Name)

	return spec, nil
}

// CreateBuilder assembles a context builder from a resolved spec: it seeds
// the properties builder with the override properties, applies the spec
// fields that are present, finalizes the properties, initializes the
// context builder, and attaches the wiring modules. The returned builder's
// BuildContext completes construction.
//
// Failures from any step are reported once, from here. A failure carrying
// an AuthorizationError anywhere in its chain is returned as that
// AuthorizationError so it is never masked by construction wrappers; any
// other failure is returned unchanged.
func (f *Factory) CreateBuilder(spec ContextSpec, modules []Module, overrides Properties) (ContextBuilder, error) {
	builder, err := f.assemble(spec, modules, overrides)
	if err != nil {
		return nil, surfaceAuthorization(err)
	}
	return builder, nil
}

func (f *Factory) assemble(spec ContextSpec, modules []Module, overrides Properties) (ContextBuilder, error) {
	if spec.Provider == "" {
		return nil, &ConfigurationError{Setting: KeyProvider, Err: ErrProviderRequired}
	}

	newProperties := spec.PropertiesBuilder
	if newProperties == nil {
		newProperties = NewPropertiesBuilder
	}
	pb := newProperties(overrides)
	pb = pb.Provider(spec.Provider)
	if spec.APIVersion != "" {
		pb = pb.APIVersion(spec.APIVersion)
	}
	if spec.Identity != "" {
		pb = pb.Credentials(spec.Identity, spec.Credential)
	}
	if spec.Endpoint != "" {
		pb = pb.Endpoint(spec.Endpoint)
	}
	props, err := pb.Build()
	if err != nil {
		return nil, err
	}

	newContext := spec.ContextBuilder
	if newContext == nil {
		newContext = NewContextBuilder
	}
	builder, err := newContext(spec.Sync, spec.Async, props)
	if err != nil {
		return nil, err
	}
	if len(modules) > 0 {
		builder = builder.WithModules(modules...)
	}
	return builder, nil
}

// CreateContext resolves the spec for provider, assembles its builder, and
// builds the context in one call. The properties builder is seeded with the
// full merged configuration, so provider-specific settings beyond the spec
// fields (a region, a bucket) reach the builder too. Authorization failures
// from any stage surface as *AuthorizationError; other failures keep their
// original type.
func (f *Factory) CreateContext(ctx context.Context, provider, identity, credential string, modules []Module, overrides Properties) (Context, error) {
	spec, err := f.ResolveSpec(provider, identity, credential, overrides)
	if err != nil {
		return nil, err
	}
	builder, err := f.CreateBuilder(spec, modules, f.base.WithProperties(overrides))
	if err != nil {
		return nil, err
	}
	c, err := builder.BuildContext(ctx)
	if err != nil {
		return nil, surfaceAuthorization(err)
	}
	f.logger.Debug("provider context built", "provider", provider, "context_id", c.ID())
	return c, nil
}

// resolveType resolves the capability ref named by "<provider>.<setting>".
// Sync and async resolve independently; an absent key yields a zero ref,
// a present key naming an unregistered type is a ResolutionError.
func (f *Factory) resolveType(provider, setting string, merged Properties) (TypeRef, error) {
	key := PropertyKey(provider, setting)
	name, ok := merged.Get(key)
	if !ok || name == "" {
		return TypeRef{}, nil
	}
	ref, ok := f.registry.Type(name)
	if !ok {
		return TypeRef{}, &ResolutionError{Provider: provider, Key: key, Name: name}
	}
	return ref, nil
}

// resolveBuilders picks the builder pair for provider: explicit
// configuration keys win, then a set registered under the provider name,
// then the generic defaults. The two keys may select halves from different
// registrations.
func (f *Factory) resolveBuilders(provider string, merged Properties) (BuilderSet, error) {
	set, registered := f.registry.BuilderSet(provider)
	if !registered {
		set = DefaultBuilderSet()
	}

	if name, ok := merged.ProviderSetting(provider, SettingPropertiesBuilder); ok && name != "" {
		named, ok := f.registry.BuilderSet(name)
		if !ok {
			return BuilderSet{}, &ResolutionError{Provider: provider, Key: PropertyKey(provider, SettingPropertiesBuilder), Name: name}
		}
		set.PropertiesBuilder = named.PropertiesBuilder
	}
	if name, ok := merged.ProviderSetting(provider, SettingContextBuilder); ok && name != "" {
		named, ok := f.registry.BuilderSet(name)
		if !ok {
			return BuilderSet{}, &ResolutionError{Provider: provider, Key: PropertyKey(provider, SettingContextBuilder), Name: name}
		}
		set.ContextBuilder = named.ContextBuilder
	}

	if set.PropertiesBuilder == nil {
		set.PropertiesBuilder = NewPropertiesBuilder
	}
	if set.ContextBuilder == nil {
		set.ContextBuilder = NewContextBuilder
	}
	return set, nil
}

// surfaceAuthorization re-surfaces an AuthorizationError found anywhere in
// err's chain; every other failure propagates unchanged.
func surfaceAuthorization(err error) error {
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return authErr
	}
	return err
}
