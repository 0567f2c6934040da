package presign_test

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsurly/jclouds/pkg/jclouds/presign"
)

const (
	testUID        = "bob"
	testCredential = "c2VjcmV0" // base64("secret")
	testEndpoint   = "https://storage.example.com"
)

func newTestSigner(t *testing.T, expires int64, opts ...presign.Option) *presign.Signer {
	t.Helper()
	opts = append([]presign.Option{
		presign.WithEndpoint(testEndpoint),
		presign.WithTimestampSource(func() int64 { return expires }),
	}, opts...)
	signer, err := presign.New(testUID, testCredential, opts...)
	require.NoError(t, err)
	return signer
}

// expectedSignature recomputes the signature from scratch so tests assert
// against the algorithm, not a recorded magic string.
func expectedSignature(t *testing.T, uid, credential, resource string, expires int64) string {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(credential)
	require.NoError(t, err)
	toSign := fmt.Sprintf("GET\n%s\n%s\n%d", strings.ToLower(resource), uid, expires)
	h := hmac.New(sha1.New, key)
	h.Write([]byte(toSign))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestSignEndToEnd(t *testing.T) {
	signer := newTestSigner(t, 1700000000)

	signed, err := signer.Sign("/container/file.txt")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "storage.example.com", u.Host)
	assert.Equal(t, "/rest/namespace/container/file.txt", u.Path)

	q := u.Query()
	assert.Equal(t, "bob", q.Get("uid"))
	assert.Equal(t, "1700000000", q.Get("expires"))
	assert.Equal(t,
		expectedSignature(t, testUID, testCredential, "/rest/namespace/container/file.txt", 1700000000),
		q.Get("signature"))
}

func TestSignDeterminism(t *testing.T) {
	signer := newTestSigner(t, 1000)

	first, err := signer.Sign("/bucket/obj")
	require.NoError(t, err)
	second, err := signer.Sign("/bucket/obj")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSignEveryInputChangesSignature(t *testing.T) {
	baseline := signatureOf(t, newTestSigner(t, 1000), "/bucket/obj")

	tests := []struct {
		name   string
		signer *presign.Signer
		path   string
	}{
		{"different path", newTestSigner(t, 1000), "/bucket/other"},
		{"different expiry", newTestSigner(t, 2000), "/bucket/obj"},
		{
			name: "different uid",
			signer: func() *presign.Signer {
				s, err := presign.New("alice", testCredential,
					presign.WithEndpoint(testEndpoint),
					presign.WithTimestampSource(func() int64 { return 1000 }))
				require.NoError(t, err)
				return s
			}(),
			path: "/bucket/obj",
		},
		{
			name: "different key",
			signer: func() *presign.Signer {
				s, err := presign.New(testUID, base64.StdEncoding.EncodeToString([]byte("other-key")),
					presign.WithEndpoint(testEndpoint),
					presign.WithTimestampSource(func() int64 { return 1000 }))
				require.NoError(t, err)
				return s
			}(),
			path: "/bucket/obj",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, baseline, signatureOf(t, tt.signer, tt.path))
		})
	}
}

func TestSignNormalizesLeadingSlash(t *testing.T) {
	withSlash := newTestSigner(t, 1000)
	withoutSlash := newTestSigner(t, 1000)

	first, err := withSlash.Sign("/bucket/obj")
	require.NoError(t, err)
	second, err := withoutSlash.Sign("bucket/obj")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	u, err := url.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, "/rest/namespace/bucket/obj", u.Path)
}

func TestSignDependsOnlyOnLowercasedPath(t *testing.T) {
	upper := signatureOf(t, newTestSigner(t, 1000), "/Bucket/Obj")
	lower := signatureOf(t, newTestSigner(t, 1000), "/bucket/obj")

	assert.Equal(t, lower, upper)
}

func TestNewRejectsBadInputs(t *testing.T) {
	tests := []struct {
		name       string
		uid        string
		credential string
		wantErr    error
	}{
		{"empty uid", "", testCredential, presign.ErrUIDRequired},
		{"undecodable credential", "bob", "not-base64!!", presign.ErrInvalidKey},
		{"empty credential", "bob", "", presign.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := presign.New(tt.uid, tt.credential)

			var signErr *presign.SigningError
			require.ErrorAs(t, err, &signErr)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// brokenMAC fails at key setup; brokenHash fails on the first write. They
// stand in for unusable key material and stream failures inside the
// keyed-hash primitive.
type brokenMAC struct {
	err error
}

func (m brokenMAC) New(key []byte) (hash.Hash, error) { return nil, m.err }

type writeFailMAC struct {
	err error
}

func (m writeFailMAC) New(key []byte) (hash.Hash, error) { return &brokenHash{err: m.err}, nil }

type brokenHash struct {
	err error
}

func (h *brokenHash) Write(p []byte) (int, error) { return 0, h.err }
func (h *brokenHash) Sum(b []byte) []byte         { return b }
func (h *brokenHash) Reset()                      {}
func (h *brokenHash) Size() int                   { return sha1.Size }
func (h *brokenHash) BlockSize() int              { return sha1.BlockSize }

func TestSignMACFailureIsSigningError(t *testing.T) {
	macErr := errors.New("mac primitive failed")
	tests := []struct {
		name string
		mac  presign.MAC
	}{
		{"key setup fails", brokenMAC{err: macErr}},
		{"stream write fails", writeFailMAC{err: macErr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := presign.New(testUID, testCredential,
				presign.WithEndpoint(testEndpoint),
				presign.WithMAC(tt.mac))
			require.NoError(t, err)

			_, err = signer.Sign("/bucket/obj")

			var signErr *presign.SigningError
			require.ErrorAs(t, err, &signErr)
			assert.ErrorIs(t, err, macErr)
		})
	}
}

func TestVerifyMACFailureIsSigningError(t *testing.T) {
	good := newTestSigner(t, time.Now().Add(time.Hour).Unix())
	signed, err := good.Sign("/bucket/obj")
	require.NoError(t, err)

	macErr := errors.New("unusable key")
	broken, err := presign.New(testUID, testCredential,
		presign.WithEndpoint(testEndpoint),
		presign.WithMAC(brokenMAC{err: macErr}))
	require.NoError(t, err)

	var signErr *presign.SigningError
	require.ErrorAs(t, broken.Verify(signed), &signErr)
}

func TestSignRequiresEndpoint(t *testing.T) {
	signer, err := presign.New(testUID, testCredential)
	require.NoError(t, err)

	_, err = signer.Sign("/bucket/obj")
	assert.ErrorIs(t, err, presign.ErrNoEndpoint)
}

func TestVerify(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	signer := newTestSigner(t, future)

	signed, err := signer.Sign("/bucket/obj")
	require.NoError(t, err)

	t.Run("valid URL verifies", func(t *testing.T) {
		assert.NoError(t, signer.Verify(signed))
	})

	t.Run("tampered path is rejected", func(t *testing.T) {
		tampered := strings.Replace(signed, "bucket", "other", 1)
		assert.ErrorIs(t, signer.Verify(tampered), presign.ErrSignatureMismatch)
	})

	t.Run("tampered expiry is rejected", func(t *testing.T) {
		u, err := url.Parse(signed)
		require.NoError(t, err)
		q := u.Query()
		q.Set("expires", fmt.Sprintf("%d", future+60))
		u.RawQuery = q.Encode()
		assert.ErrorIs(t, signer.Verify(u.String()), presign.ErrSignatureMismatch)
	})

	t.Run("expired URL is rejected", func(t *testing.T) {
		expired := newTestSigner(t, time.Now().Add(-time.Hour).Unix())
		signed, err := expired.Sign("/bucket/obj")
		require.NoError(t, err)
		assert.ErrorIs(t, signer.Verify(signed), presign.ErrExpired)
	})

	t.Run("missing signature parameter", func(t *testing.T) {
		err := signer.Verify(testEndpoint + "/rest/namespace/bucket/obj?expires=99999999999")
		assert.ErrorIs(t, err, presign.ErrMissingSignature)
	})

	t.Run("missing expires parameter", func(t *testing.T) {
		err := signer.Verify(testEndpoint + "/rest/namespace/bucket/obj?signature=abc")
		assert.ErrorIs(t, err, presign.ErrMissingExpiration)
	})

	t.Run("unparseable expires parameter", func(t *testing.T) {
		err := signer.Verify(testEndpoint + "/rest/namespace/bucket/obj?signature=abc&expires=soon")
		assert.ErrorIs(t, err, presign.ErrInvalidExpiration)
	})
}

func TestVerifyEndpointWithBasePath(t *testing.T) {
	signer, err := presign.New(testUID, testCredential,
		presign.WithEndpoint(testEndpoint+"/base"),
		presign.WithTimestampSource(func() int64 { return time.Now().Add(time.Hour).Unix() }))
	require.NoError(t, err)

	signed, err := signer.Sign("/bucket/obj")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/base/rest/namespace/bucket/obj", u.Path)

	// The base path must not leak into the recomputed canonical string,
	// and the signature must still match a host-only signer's.
	assert.NoError(t, signer.Verify(signed))
	assert.Equal(t,
		expectedSignature(t, testUID, testCredential, "/rest/namespace/bucket/obj", expiresAt(t, signed)),
		u.Query().Get("signature"))

	t.Run("tampered path still rejected", func(t *testing.T) {
		tampered := strings.Replace(signed, "bucket", "other", 1)
		assert.ErrorIs(t, signer.Verify(tampered), presign.ErrSignatureMismatch)
	})
}

func expiresAt(t *testing.T, signed string) int64 {
	t.Helper()
	u, err := url.Parse(signed)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	return expires
}

func TestDefaultTimestampUsesValidity(t *testing.T) {
	signer, err := presign.New(testUID, testCredential,
		presign.WithEndpoint(testEndpoint),
		presign.WithValidity(30*time.Minute))
	require.NoError(t, err)

	signed, err := signer.Sign("/bucket/obj")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)

	want := time.Now().Add(30 * time.Minute).Unix()
	assert.InDelta(t, want, expires, 5)
}

func signatureOf(t *testing.T, signer *presign.Signer, path string) string {
	t.Helper()
	signed, err := signer.Sign(path)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	sig := u.Query().Get("signature")
	require.NotEmpty(t, sig)
	return sig
}
