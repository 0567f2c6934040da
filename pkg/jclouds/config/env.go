package config

import (
	"context"
	"os"
	"strings"
)

// WithEnv adds an environment-variable overlay. Variables named
// "<PREFIX>_<PROVIDER>_<SETTING>" map to "<provider>.<setting>": with
// prefix "JCLOUDS", JCLOUDS_S3_ENDPOINT becomes "s3.endpoint" and
// JCLOUDS_S3_CONTEXT_BUILDER becomes "s3.contextbuilder" (underscores in
// the setting part are dropped, matching the flat key grammar).
func WithEnv(prefix string) Option {
	return func(l *loader) {
		l.sources = append(l.sources, SourceFunc(func(ctx context.Context) (map[string]string, error) {
			values := make(map[string]string)
			for _, kv := range os.Environ() {
				name, value, ok := strings.Cut(kv, "=")
				if !ok || !strings.HasPrefix(name, prefix+"_") {
					continue
				}
				rest := strings.TrimPrefix(name, prefix+"_")
				provider, setting, ok := strings.Cut(rest, "_")
				if !ok || provider == "" || setting == "" {
					continue
				}
				key := strings.ToLower(provider) + "." + strings.ToLower(strings.ReplaceAll(setting, "_", ""))
				values[key] = value
			}
			return values, nil
		}))
	}
}
