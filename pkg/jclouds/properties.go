package jclouds

import "sort"

// Setting names recognized under the "<provider>.<setting>" key grammar.
const (
	SettingEndpoint          = "endpoint"
	SettingAPIVersion        = "apiversion"
	SettingIdentity          = "identity"
	SettingCredential        = "credential"
	SettingSync              = "sync"
	SettingAsync             = "async"
	SettingContextBuilder    = "contextbuilder"
	SettingPropertiesBuilder = "propertiesbuilder"
)

// KeyProvider is the flat key under which a finalized properties object
// records the provider name it was built for.
const KeyProvider = "provider"

// PropertyKey composes the configuration key for a provider setting, e.g.
// PropertyKey("s3", SettingEndpoint) == "s3.endpoint".
func PropertyKey(provider, setting string) string {
	return provider + "." + setting
}

// Properties is an immutable stack of key/value overlays. Lookups scan the
// overlays from the most recently added layer down and return the first
// match; adding a layer never mutates an existing one, so values derived
// from the same base are independent. The zero value is an empty, usable
// configuration.
type Properties struct {
	layers []map[string]string
}

// NewProperties creates a single-layer Properties from values. The map is
// copied; the caller keeps ownership of its argument.
func NewProperties(values map[string]string) Properties {
	return Properties{}.WithOverrides(values)
}

// WithOverrides returns a new Properties with values layered on top of p.
// Keys present in values shadow the same keys in lower layers.
func (p Properties) WithOverrides(values map[string]string) Properties {
	if len(values) == 0 {
		return p
	}
	layer := make(map[string]string, len(values))
	for k, v := range values {
		layer[k] = v
	}
	layers := make([]map[string]string, 0, len(p.layers)+1)
	layers = append(layers, p.layers...)
	layers = append(layers, layer)
	return Properties{layers: layers}
}

// WithProperties returns a new Properties with every layer of other stacked
// on top of p, preserving other's internal precedence.
func (p Properties) WithProperties(other Properties) Properties {
	if len(other.layers) == 0 {
		return p
	}
	layers := make([]map[string]string, 0, len(p.layers)+len(other.layers))
	layers = append(layers, p.layers...)
	layers = append(layers, other.layers...)
	return Properties{layers: layers}
}

// Get returns the value for key from the highest layer that defines it.
func (p Properties) Get(key string) (string, bool) {
	for i := len(p.layers) - 1; i >= 0; i-- {
		if v, ok := p.layers[i][key]; ok {
			return v, true
		}
	}
	return "", false
}

// ProviderSetting returns the value of the "<provider>.<setting>" key.
func (p Properties) ProviderSetting(provider, setting string) (string, bool) {
	return p.Get(PropertyKey(provider, setting))
}

// Flatten returns the merged view as a plain map, higher layers winning.
// The result is a copy and safe for the caller to modify.
func (p Properties) Flatten() map[string]string {
	out := make(map[string]string)
	for _, layer := range p.layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Keys returns every defined key in sorted order.
func (p Properties) Keys() []string {
	merged := p.Flatten()
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
