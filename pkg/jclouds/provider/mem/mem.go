// Package mem provides a deterministic in-memory provider. It exists for
// tests and examples: contexts build without any remote service, and the
// builder rejects an identity with no credential so authorization-failure
// handling can be exercised end to end.
package mem

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mcsurly/jclouds/pkg/jclouds"
)

// Name is the provider name the builder set registers under.
const Name = "mem"

// SyncTypeName is the registered name of the synchronous client type,
// referenced from configuration via "mem.sync".
const SyncTypeName = "mem.Client"

// Register registers the mem builder set and client type on r.
func Register(r *jclouds.Registry) {
	r.RegisterType(jclouds.TypeOf[*Client](SyncTypeName))
	r.RegisterBuilderSet(Name, jclouds.BuilderSet{
		PropertiesBuilder: jclouds.NewPropertiesBuilder,
		ContextBuilder:    newContextBuilder,
	})
}

// Client is an in-memory object store. It is safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewClient creates an empty client.
func NewClient() *Client {
	return &Client{objects: make(map[string][]byte)}
}

// Put stores data under path, replacing any existing object.
func (c *Client) Put(path string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.objects[path] = buf
}

// Get returns the object stored under path.
func (c *Client) Get(path string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.objects[path]
	if !ok {
		return nil, false
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, true
}

// Delete removes the object stored under path, if any.
func (c *Client) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, path)
}

// List returns every stored path in sorted order.
func (c *Client) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.objects))
	for p := range c.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Context is the mem provider context.
type Context struct {
	id       string
	endpoint string
	identity string
	client   *Client
}

// ID returns the identifier assigned at build time.
func (c *Context) ID() string { return c.id }

// Provider returns "mem".
func (c *Context) Provider() string { return Name }

// Endpoint returns the configured endpoint, if any.
func (c *Context) Endpoint() string { return c.endpoint }

// Identity returns the configured identity, if any.
func (c *Context) Identity() string { return c.identity }

// Client returns the in-memory client.
func (c *Context) Client() *Client { return c.client }

// SyncAPI returns the in-memory client as the synchronous capability.
func (c *Context) SyncAPI() any { return c.client }

// AsyncAPI returns nil; the mem provider has no asynchronous capability.
func (c *Context) AsyncAPI() any { return nil }

// Close is a no-op.
func (c *Context) Close() error { return nil }

type contextBuilder struct {
	sync    jclouds.TypeRef
	props   jclouds.Properties
	modules []jclouds.Module
}

func newContextBuilder(sync, async jclouds.TypeRef, props jclouds.Properties) (jclouds.ContextBuilder, error) {
	return &contextBuilder{sync: sync, props: props}, nil
}

func (b *contextBuilder) WithModules(modules ...jclouds.Module) jclouds.ContextBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *contextBuilder) BuildContext(ctx context.Context) (jclouds.Context, error) {
	identity, _ := b.props.ProviderSetting(Name, jclouds.SettingIdentity)
	credential, _ := b.props.ProviderSetting(Name, jclouds.SettingCredential)
	if identity != "" && credential == "" {
		return nil, jclouds.NewAuthorizationError(Name, errors.New("identity set without credential"))
	}

	client := NewClient()
	if !b.sync.IsZero() && !b.sync.Assignable(client) {
		return nil, &jclouds.InstantiationError{
			Provider: Name,
			Err:      errors.New("client does not satisfy capability " + b.sync.Name),
		}
	}

	c := &Context{
		id:       uuid.NewString(),
		identity: identity,
		client:   client,
	}
	c.endpoint, _ = b.props.ProviderSetting(Name, jclouds.SettingEndpoint)

	for _, m := range b.modules {
		if err := m.Configure(c); err != nil {
			return nil, &jclouds.InstantiationError{Provider: Name, Err: err}
		}
	}
	return c, nil
}
