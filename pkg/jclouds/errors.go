package jclouds

import (
	"errors"
	"fmt"
)

// Resolution and assembly errors
var (
	// ErrProviderRequired indicates the provider name was missing or empty
	ErrProviderRequired = errors.New("provider name is required")
)

// ConfigurationError represents missing or invalid required configuration
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration setting %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ResolutionError represents a configured name with no registry entry. Key
// is the configuration key that named it (e.g. "s3.contextbuilder").
type ResolutionError struct {
	Provider string
	Key      string
	Name     string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution failed for provider %s: no registration for %q (key %s)", e.Provider, e.Name, e.Key)
}

// InstantiationError represents a failure constructing a provider context
// from resolved builders
type InstantiationError struct {
	Provider string
	Err      error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("context instantiation failed for provider %s: %v", e.Provider, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// AuthorizationError represents credentials rejected by a provider. The
// assembler surfaces it ahead of construction wrappers so callers can match
// on it with errors.As regardless of where in the build it occurred.
type AuthorizationError struct {
	Provider string
	Err      error
}

// NewAuthorizationError creates an AuthorizationError for the given provider
func NewAuthorizationError(provider string, err error) *AuthorizationError {
	return &AuthorizationError{Provider: provider, Err: err}
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed for provider %s: %v", e.Provider, e.Err)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}
