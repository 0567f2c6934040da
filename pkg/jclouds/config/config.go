// Package config loads layered provider configuration into a
// jclouds.Properties value.
//
// Load starts from the bundled defaults and applies one overlay per option
// in the order the options are given, later overlays shadowing earlier
// ones. Sources for files, environment variables, literal maps, Postgres
// tables and SSM parameters are provided; anything else plugs in through
// the Source interface.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcsurly/jclouds/pkg/jclouds"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Source supplies one configuration overlay. Implementations return a flat
// "<provider>.<setting>" keyed map; a nil or empty map is a valid,
// contributes-nothing result.
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (map[string]string, error)

// Load implements Source.
func (f SourceFunc) Load(ctx context.Context) (map[string]string, error) {
	return f(ctx)
}

// Option adds one configuration overlay to a Load call.
type Option func(*loader)

type loader struct {
	sources []Source
}

// WithFile adds a YAML file overlay. Nested maps flatten to dotted keys, so
//
//	s3:
//	  endpoint: https://s3.example.com
//
// becomes "s3.endpoint".
func WithFile(path string) Option {
	return func(l *loader) {
		l.sources = append(l.sources, SourceFunc(func(ctx context.Context) (map[string]string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			values, err := flattenYAML(data)
			if err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
			return values, nil
		}))
	}
}

// WithValues adds a literal overlay. The map is copied by the Properties
// layer; callers keep ownership.
func WithValues(values map[string]string) Option {
	return func(l *loader) {
		l.sources = append(l.sources, SourceFunc(func(ctx context.Context) (map[string]string, error) {
			return values, nil
		}))
	}
}

// WithSource adds a custom overlay source.
func WithSource(src Source) Option {
	return func(l *loader) {
		l.sources = append(l.sources, src)
	}
}

// Load builds the layered configuration: bundled defaults first, then one
// overlay per option in option order. A failing source fails the whole
// load; there is no partial result.
func Load(ctx context.Context, opts ...Option) (jclouds.Properties, error) {
	defaults, err := flattenYAML(defaultsYAML)
	if err != nil {
		return jclouds.Properties{}, fmt.Errorf("config: parse bundled defaults: %w", err)
	}
	props := jclouds.NewProperties(defaults)

	l := &loader{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(l)
	}

	for _, src := range l.sources {
		values, err := src.Load(ctx)
		if err != nil {
			return jclouds.Properties{}, err
		}
		props = props.WithOverrides(values)
	}
	return props, nil
}

// flattenYAML parses data and flattens nested maps into dotted keys.
// Scalar leaves are rendered with fmt.Sprint, so unquoted numbers and
// booleans come through as their literal text.
func flattenYAML(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	values := make(map[string]string)
	flattenInto(values, "", root)
	return values, nil
}

func flattenInto(out map[string]string, prefix string, node map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch child := v.(type) {
		case map[string]any:
			flattenInto(out, key, child)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(child)
		}
	}
}
