package presign

import (
	"errors"
	"fmt"
)

// Signing and verification errors
var (
	// ErrUIDRequired is returned when a signer is constructed without a uid
	ErrUIDRequired = errors.New("presign: uid is required")

	// ErrInvalidKey is returned when the credential is not valid key material
	ErrInvalidKey = errors.New("presign: invalid key material")

	// ErrNoEndpoint is returned when signing without a configured endpoint
	ErrNoEndpoint = errors.New("presign: no endpoint configured")

	// ErrMissingSignature is returned when the signature query parameter is missing
	ErrMissingSignature = errors.New("presign: missing signature parameter")

	// ErrMissingExpiration is returned when the expires query parameter is missing
	ErrMissingExpiration = errors.New("presign: missing expires parameter")

	// ErrInvalidExpiration is returned when the expires parameter cannot be parsed
	ErrInvalidExpiration = errors.New("presign: invalid expires parameter")

	// ErrExpired is returned when the signed URL has expired
	ErrExpired = errors.New("presign: URL has expired")

	// ErrSignatureMismatch is returned when the signature does not verify
	ErrSignatureMismatch = errors.New("presign: signature mismatch")
)

// SigningError wraps any failure producing or checking a signature: invalid
// key material and stream failures while computing the MAC both surface as
// this one kind. Callers match the underlying condition with errors.Is.
type SigningError struct {
	Op  string
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("presign: %s: %v", e.Op, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
