// Package presign produces time-limited signed share URLs that grant read
// access to a remote resource without handing out the secret key.
//
// A URL is signed by joining "GET", the lowercased resource path, the uid
// and the expiry with newlines, computing HMAC-SHA1 over that string with
// the decoded secret key, and attaching the base64 signature together with
// uid and expires as query parameters:
//
//	<endpoint>/rest/namespace/<path>?uid=<uid>&expires=<epoch>&signature=<sig>
//
// Holders of the URL get access until expires; holders of the key can
// verify it with Verify.
package presign

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"hash"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NamespacePrefix is the literal path segment prepended to every signed
// resource path.
const NamespacePrefix = "/rest/namespace/"

// DefaultValidity is how long signed URLs stay valid unless WithValidity
// or WithTimestampSource overrides it.
const DefaultValidity = 1 * time.Hour

// MAC creates the keyed-hash primitive used to sign. Implementations
// reject unusable key material from New.
type MAC interface {
	New(key []byte) (hash.Hash, error)
}

type hmacSHA1 struct{}

func (hmacSHA1) New(key []byte) (hash.Hash, error) {
	if len(key) == 0 {
		return nil, ErrInvalidKey
	}
	return hmac.New(sha1.New, key), nil
}

// Signer produces signed share URLs for one identity. It is immutable
// after construction and safe for concurrent use: its only state is the
// uid and the decoded secret key, fixed at creation.
type Signer struct {
	uid       string
	key       []byte
	endpoint  string
	validity  time.Duration
	timestamp func() int64
	mac       MAC
	logger    *slog.Logger
}

// New creates a Signer for uid. The credential is the standard-base64
// encoding of the secret key, as stored in "<provider>.credential"
// configuration; it is decoded once here. An empty uid or undecodable
// credential fails with a SigningError wrapping ErrUIDRequired or
// ErrInvalidKey.
func New(uid, credential string, opts ...Option) (*Signer, error) {
	if uid == "" {
		return nil, &SigningError{Op: "new", Err: ErrUIDRequired}
	}
	key, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		return nil, &SigningError{Op: "decode key", Err: ErrInvalidKey}
	}
	if len(key) == 0 {
		return nil, &SigningError{Op: "decode key", Err: ErrInvalidKey}
	}

	s := &Signer{
		uid:      uid,
		key:      key,
		validity: DefaultValidity,
		mac:      hmacSHA1{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timestamp == nil {
		validity := s.validity
		s.timestamp = func() int64 {
			return time.Now().Add(validity).Unix()
		}
	}
	return s, nil
}

// UID returns the identity the signer signs as.
func (s *Signer) UID() string { return s.uid }

// Sign produces a signed share URL for resourcePath. The same uid, key,
// path and expiry always produce the same signature. A leading slash on
// resourcePath is dropped before the namespace prefix is applied, so
// "/bucket/obj" and "bucket/obj" name and sign the same resource; the
// output path always carries exactly one separator after the prefix.
func (s *Signer) Sign(resourcePath string) (string, error) {
	if s.endpoint == "" {
		return "", &SigningError{Op: "sign", Err: ErrNoEndpoint}
	}

	requestedResource := NamespacePrefix + strings.TrimPrefix(resourcePath, "/")
	expires := s.timestamp()

	signature, err := s.signString(stringToSign(s.uid, requestedResource, expires))
	if err != nil {
		return "", err
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", &SigningError{Op: "parse endpoint", Err: err}
	}
	q := url.Values{}
	q.Set("uid", s.uid)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", signature)
	u.RawQuery = q.Encode()
	u.Path = strings.TrimSuffix(u.Path, "/") + requestedResource

	s.logger.Debug("signed share URL",
		"uid", s.uid,
		"resource", requestedResource,
		"expires", expires)

	return u.String(), nil
}

// Verify checks a signed URL produced with the same uid and key: the
// signature must match and the expiry must be in the future. Signature
// comparison is constant-time.
func (s *Signer) Verify(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &SigningError{Op: "parse url", Err: err}
	}
	q := u.Query()

	signature := q.Get("signature")
	if signature == "" {
		return ErrMissingSignature
	}
	expiresStr := q.Get("expires")
	if expiresStr == "" {
		return ErrMissingExpiration
	}
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return ErrInvalidExpiration
	}
	if time.Now().Unix() > expires {
		return ErrExpired
	}

	// Sign signed only the namespace resource; an endpoint configured
	// with a base path contributes leading segments that must not enter
	// the recomputation.
	resource := u.Path
	if idx := strings.Index(resource, NamespacePrefix); idx > 0 {
		resource = resource[idx:]
	}

	expected, err := s.signString(stringToSign(q.Get("uid"), resource, expires))
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrSignatureMismatch
	}
	return nil
}

// stringToSign builds the canonical string: method, lowercased resource,
// uid and expiry, newline-joined in that exact order.
func stringToSign(uid, requestedResource string, expires int64) string {
	var b strings.Builder
	b.WriteString("GET\n")
	b.WriteString(strings.ToLower(requestedResource))
	b.WriteString("\n")
	b.WriteString(uid)
	b.WriteString("\n")
	b.WriteString(strconv.FormatInt(expires, 10))
	return b.String()
}

func (s *Signer) signString(toSign string) (string, error) {
	h, err := s.mac.New(s.key)
	if err != nil {
		return "", &SigningError{Op: "init mac", Err: err}
	}
	if _, err := h.Write([]byte(toSign)); err != nil {
		return "", &SigningError{Op: "write mac", Err: err}
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
