package jclouds

import "reflect"

// TypeRef names a client capability type a provider's context builder can
// produce. Refs are registered explicitly on a Registry and referenced from
// configuration by name (for example "s3.Client" via the "s3.sync" key).
type TypeRef struct {
	Name string
	Type reflect.Type
}

// TypeOf builds a TypeRef for T under the given name. T is typically an
// interface or pointer type describing the client surface.
func TypeOf[T any](name string) TypeRef {
	return TypeRef{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// IsZero reports whether the ref is absent.
func (t TypeRef) IsZero() bool {
	return t.Name == "" && t.Type == nil
}

// Assignable reports whether v can satisfy the referenced type. A ref
// without a concrete type accepts any non-nil value.
func (t TypeRef) Assignable(v any) bool {
	if v == nil {
		return false
	}
	if t.Type == nil {
		return true
	}
	vt := reflect.TypeOf(v)
	if t.Type.Kind() == reflect.Interface {
		return vt.Implements(t.Type)
	}
	return vt.AssignableTo(t.Type)
}

// ContextSpec is the resolved, immutable description of one provider
// context build: which provider, which endpoint, version and credentials
// apply, and which registered builders and capability types construct the
// context. Specs are created per build call and carry no mutable state.
//
// Provider is always set. Every other field is optional and absence is
// meaningful: an empty Endpoint means "use the provider default", a zero
// Sync/Async ref means the provider is not bound to concrete client types,
// and nil builder factories select the generic defaults at assembly time.
type ContextSpec struct {
	Provider   string
	Endpoint   string
	APIVersion string
	Identity   string
	Credential string

	Sync  TypeRef
	Async TypeRef

	PropertiesBuilder PropertiesBuilderFactory
	ContextBuilder    ContextBuilderFactory
}
