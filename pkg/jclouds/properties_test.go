package jclouds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesLayering(t *testing.T) {
	tests := []struct {
		name     string
		base     map[string]string
		override map[string]string
		key      string
		want     string
		found    bool
	}{
		{
			name:     "override wins over base",
			base:     map[string]string{"s3.endpoint": "https://base.example.com"},
			override: map[string]string{"s3.endpoint": "https://override.example.com"},
			key:      "s3.endpoint",
			want:     "https://override.example.com",
			found:    true,
		},
		{
			name:     "base value visible through override layer",
			base:     map[string]string{"s3.identity": "AKIA123"},
			override: map[string]string{"s3.endpoint": "https://override.example.com"},
			key:      "s3.identity",
			want:     "AKIA123",
			found:    true,
		},
		{
			name:     "missing key reports not found",
			base:     map[string]string{"s3.identity": "AKIA123"},
			override: nil,
			key:      "s3.credential",
			want:     "",
			found:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := NewProperties(tt.base).WithOverrides(tt.override)
			got, ok := props.Get(tt.key)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPropertiesImmutable(t *testing.T) {
	source := map[string]string{"mem.identity": "alice"}
	base := NewProperties(source)

	// Mutating the source map after construction must not leak in.
	source["mem.identity"] = "mallory"
	got, ok := base.Get("mem.identity")
	require.True(t, ok)
	assert.Equal(t, "alice", got)

	// Deriving an overlay must leave the base untouched.
	derived := base.WithOverrides(map[string]string{"mem.identity": "bob"})
	got, _ = derived.Get("mem.identity")
	assert.Equal(t, "bob", got)
	got, _ = base.Get("mem.identity")
	assert.Equal(t, "alice", got)
}

func TestPropertiesWithProperties(t *testing.T) {
	base := NewProperties(map[string]string{
		"s3.endpoint": "https://base.example.com",
		"s3.identity": "AKIA123",
	})
	other := NewProperties(map[string]string{"s3.endpoint": "https://low.example.com"}).
		WithOverrides(map[string]string{"s3.endpoint": "https://high.example.com"})

	merged := base.WithProperties(other)

	got, _ := merged.Get("s3.endpoint")
	assert.Equal(t, "https://high.example.com", got, "other's internal precedence preserved")
	got, _ = merged.Get("s3.identity")
	assert.Equal(t, "AKIA123", got)

	// Base remains usable on its own.
	got, _ = base.Get("s3.endpoint")
	assert.Equal(t, "https://base.example.com", got)
}

func TestPropertiesFlattenAndKeys(t *testing.T) {
	props := NewProperties(map[string]string{
		"b.endpoint": "1",
		"a.endpoint": "2",
	}).WithOverrides(map[string]string{"b.endpoint": "3"})

	flat := props.Flatten()
	assert.Equal(t, map[string]string{"a.endpoint": "2", "b.endpoint": "3"}, flat)

	// Flatten returns a copy.
	flat["a.endpoint"] = "mutated"
	got, _ := props.Get("a.endpoint")
	assert.Equal(t, "2", got)

	assert.Equal(t, []string{"a.endpoint", "b.endpoint"}, props.Keys())
}

func TestPropertiesZeroValue(t *testing.T) {
	var props Properties
	_, ok := props.Get("s3.endpoint")
	assert.False(t, ok)
	assert.Empty(t, props.Keys())

	derived := props.WithOverrides(map[string]string{"s3.endpoint": "https://example.com"})
	got, ok := derived.Get("s3.endpoint")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", got)
}

func TestPropertyKey(t *testing.T) {
	assert.Equal(t, "s3.endpoint", PropertyKey("s3", SettingEndpoint))
	assert.Equal(t, "mem.contextbuilder", PropertyKey("mem", SettingContextBuilder))
}
