// Package jclouds provides a reusable library for resolving multi-provider
// cloud client configuration into runnable provider contexts.
//
// It exposes a Factory that merges layered key/value configuration, extracts
// the settings for a named provider into an immutable ContextSpec, and drives
// a registered builder pair to assemble the provider's context. Provider
// packages (e.g., s3, mem) register their builder sets and client capability
// types on a Registry; providers without a registration are served by a
// generic default builder. Signed share URLs are produced by the presign
// subpackage, and layered configuration sources live under config.
//
// Configuration Grammar
//
// Settings are flat keys of the form "<provider>.<setting>" (for example
// "s3.endpoint"). A configuration entry for a provider always wins over the
// matching argument passed to a resolution call: callers that want their
// identity/credential arguments to apply must omit the conflicting entries
// from their override layer.
package jclouds
