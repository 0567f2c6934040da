package jclouds

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// basicPropertiesBuilder is the generic PropertiesBuilder. It records the
// applied settings and finalizes them as one overlay on top of the caller's
// overrides, keyed by the provider name recorded via Provider.
type basicPropertiesBuilder struct {
	overrides Properties
	provider  string
	settings  map[string]string
}

// NewPropertiesBuilder returns the generic properties builder, seeded with
// the caller's override properties. It is the default when a provider
// registers no PropertiesBuilderFactory of its own.
func NewPropertiesBuilder(overrides Properties) PropertiesBuilder {
	return &basicPropertiesBuilder{
		overrides: overrides,
		settings:  make(map[string]string),
	}
}

func (b *basicPropertiesBuilder) Provider(name string) PropertiesBuilder {
	b.provider = name
	return b
}

func (b *basicPropertiesBuilder) APIVersion(version string) PropertiesBuilder {
	b.settings[SettingAPIVersion] = version
	return b
}

func (b *basicPropertiesBuilder) Credentials(identity, credential string) PropertiesBuilder {
	b.settings[SettingIdentity] = identity
	b.settings[SettingCredential] = credential
	return b
}

func (b *basicPropertiesBuilder) Endpoint(uri string) PropertiesBuilder {
	b.settings[SettingEndpoint] = uri
	return b
}

func (b *basicPropertiesBuilder) Build() (Properties, error) {
	if b.provider == "" {
		return Properties{}, &ConfigurationError{Setting: KeyProvider, Err: ErrProviderRequired}
	}
	layer := make(map[string]string, len(b.settings)+1)
	layer[KeyProvider] = b.provider
	for setting, value := range b.settings {
		layer[PropertyKey(b.provider, setting)] = value
	}
	return b.overrides.WithOverrides(layer), nil
}

// BasicContext is the generic Context implementation. Wiring modules
// receive *BasicContext as their configure target and may bind client
// capabilities with BindSync/BindAsync; bindings are validated against the
// spec's capability refs.
type BasicContext struct {
	id         string
	provider   string
	endpoint   string
	identity   string
	apiVersion string
	props      Properties
	sync       TypeRef
	async      TypeRef
	syncAPI    any
	asyncAPI   any
}

// ID returns the identifier assigned when the context was built.
func (c *BasicContext) ID() string { return c.id }

// Provider returns the provider name the context was built for.
func (c *BasicContext) Provider() string { return c.provider }

// Endpoint returns the endpoint the context is bound to, if any.
func (c *BasicContext) Endpoint() string { return c.endpoint }

// Identity returns the identity the context authenticates as, if any.
func (c *BasicContext) Identity() string { return c.identity }

// APIVersion returns the provider API version, if any.
func (c *BasicContext) APIVersion() string { return c.apiVersion }

// Properties returns the finalized properties the context was built from.
func (c *BasicContext) Properties() Properties { return c.props }

// BindSync binds the synchronous client capability. It fails when the value
// does not satisfy the context's sync capability ref.
func (c *BasicContext) BindSync(v any) error {
	if !c.sync.IsZero() && !c.sync.Assignable(v) {
		return fmt.Errorf("value of type %T does not satisfy capability %s", v, c.sync.Name)
	}
	c.syncAPI = v
	return nil
}

// BindAsync binds the asynchronous client capability. It fails when the
// value does not satisfy the context's async capability ref.
func (c *BasicContext) BindAsync(v any) error {
	if !c.async.IsZero() && !c.async.Assignable(v) {
		return fmt.Errorf("value of type %T does not satisfy capability %s", v, c.async.Name)
	}
	c.asyncAPI = v
	return nil
}

// SyncAPI returns the bound synchronous client capability, if any.
func (c *BasicContext) SyncAPI() any { return c.syncAPI }

// AsyncAPI returns the bound asynchronous client capability, if any.
func (c *BasicContext) AsyncAPI() any { return c.asyncAPI }

// Close closes any bound capability that implements io.Closer.
func (c *BasicContext) Close() error {
	for _, v := range []any{c.syncAPI, c.asyncAPI} {
		if closer, ok := v.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

// basicContextBuilder is the generic ContextBuilder used when a provider
// registers no builder set: it carries the finalized properties into a
// BasicContext and leaves client binding to the attached modules.
type basicContextBuilder struct {
	sync    TypeRef
	async   TypeRef
	props   Properties
	modules []Module
}

// NewContextBuilder returns the generic ContextBuilder for the given
// capability refs and finalized properties. The properties must carry the
// provider name under KeyProvider, which every PropertiesBuilder guarantees.
func NewContextBuilder(sync, async TypeRef, props Properties) (ContextBuilder, error) {
	if _, ok := props.Get(KeyProvider); !ok {
		return nil, &ConfigurationError{Setting: KeyProvider, Err: ErrProviderRequired}
	}
	return &basicContextBuilder{sync: sync, async: async, props: props}, nil
}

func (b *basicContextBuilder) WithModules(modules ...Module) ContextBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *basicContextBuilder) BuildContext(ctx context.Context) (Context, error) {
	provider, _ := b.props.Get(KeyProvider)
	c := &BasicContext{
		id:       uuid.NewString(),
		provider: provider,
		props:    b.props,
		sync:     b.sync,
		async:    b.async,
	}
	c.endpoint, _ = b.props.ProviderSetting(provider, SettingEndpoint)
	c.identity, _ = b.props.ProviderSetting(provider, SettingIdentity)
	c.apiVersion, _ = b.props.ProviderSetting(provider, SettingAPIVersion)

	for _, m := range b.modules {
		if err := m.Configure(c); err != nil {
			return nil, &InstantiationError{Provider: provider, Err: err}
		}
	}
	return c, nil
}
