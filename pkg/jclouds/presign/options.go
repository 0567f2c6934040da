package presign

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithEndpoint sets the provider endpoint signed URLs are built against.
// Sign fails until an endpoint is configured.
func WithEndpoint(endpoint string) Option {
	return func(s *Signer) {
		s.endpoint = endpoint
	}
}

// WithValidity sets how long signed URLs stay valid when the default
// timestamp source is used. Default is 1 hour.
func WithValidity(d time.Duration) Option {
	return func(s *Signer) {
		s.validity = d
	}
}

// WithTimestampSource replaces the expiry timestamp source. The function
// returns the epoch-seconds expiry stamped into each signed URL; the
// default returns now plus the configured validity. It must be safe for
// concurrent use.
func WithTimestampSource(fn func() int64) Option {
	return func(s *Signer) {
		s.timestamp = fn
	}
}

// WithMAC replaces the keyed-hash primitive. Default is HMAC-SHA1.
func WithMAC(mac MAC) Option {
	return func(s *Signer) {
		s.mac = mac
	}
}

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Signer) {
		s.logger = logger
	}
}
