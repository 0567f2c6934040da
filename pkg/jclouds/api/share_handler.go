// Package api exposes the share-URL service over HTTP: resolving a
// provider's signing credentials through a jclouds.Factory and minting
// presigned share URLs with them.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/mcsurly/jclouds/pkg/jclouds"
	"github.com/mcsurly/jclouds/pkg/jclouds/presign"
)

// ShareRequest is the POST /share request body.
type ShareRequest struct {
	Provider  string `json:"provider"`
	Path      string `json:"path"`
	ExpiresIn int64  `json:"expires_in,omitempty"` // seconds; 0 uses the handler default
}

// ShareResponse is the POST /share response body.
type ShareResponse struct {
	URL     string `json:"url"`
	UID     string `json:"uid"`
	Expires int64  `json:"expires"`
}

// ProvidersResponse is the GET /providers response body.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// ErrResponse is the error response body.
type ErrResponse struct {
	Error string `json:"error"`
}

// Option is a functional option for configuring a ShareHandler
type Option func(*ShareHandler)

// WithJWTAuth protects the share route with JWT verification. The token
// subject becomes the caller identity passed to spec resolution, so a
// configured "<provider>.identity" still wins over it.
func WithJWTAuth(tokenAuth *jwtauth.JWTAuth) Option {
	return func(h *ShareHandler) {
		h.tokenAuth = tokenAuth
	}
}

// WithValidity sets the default share-URL validity. Default is 1 hour.
func WithValidity(d time.Duration) Option {
	return func(h *ShareHandler) {
		h.validity = d
	}
}

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(h *ShareHandler) {
		h.logger = logger
	}
}

// ShareHandler serves share-URL requests backed by a factory.
type ShareHandler struct {
	factory   *jclouds.Factory
	tokenAuth *jwtauth.JWTAuth
	validity  time.Duration
	logger    *slog.Logger
}

// NewShareHandler creates a handler minting share URLs from provider
// configuration resolved through factory.
func NewShareHandler(factory *jclouds.Factory, opts ...Option) *ShareHandler {
	h := &ShareHandler{
		factory:  factory,
		validity: presign.DefaultValidity,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the handler's routes. The share route sits behind JWT
// verification when WithJWTAuth was supplied.
func (h *ShareHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/providers", h.ListProviders)

	r.Group(func(r chi.Router) {
		if h.tokenAuth != nil {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)
		}
		r.Post("/share", h.CreateShare)
	})

	return r
}

// ListProviders lists the providers the factory's registry supports.
func (h *ShareHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ProvidersResponse{
		Providers: h.factory.Registry().SupportedProviders(),
	})
}

// CreateShare resolves the provider's identity, credential and endpoint,
// signs the requested resource path, and returns the share URL.
func (h *ShareHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Provider == "" {
		h.renderError(w, r, http.StatusBadRequest, "provider is required")
		return
	}
	if req.Path == "" {
		h.renderError(w, r, http.StatusBadRequest, "path is required")
		return
	}

	spec, err := h.factory.ResolveSpec(req.Provider, h.subject(r), "", jclouds.Properties{})
	if err != nil {
		h.renderResolveError(w, r, req.Provider, err)
		return
	}
	if spec.Identity == "" || spec.Credential == "" {
		h.renderError(w, r, http.StatusUnprocessableEntity, "provider has no signing credentials configured")
		return
	}
	if spec.Endpoint == "" {
		h.renderError(w, r, http.StatusUnprocessableEntity, "provider has no endpoint configured")
		return
	}

	signerOpts := []presign.Option{presign.WithEndpoint(spec.Endpoint)}
	if req.ExpiresIn > 0 {
		signerOpts = append(signerOpts, presign.WithValidity(time.Duration(req.ExpiresIn)*time.Second))
	} else {
		signerOpts = append(signerOpts, presign.WithValidity(h.validity))
	}
	signer, err := presign.New(spec.Identity, spec.Credential, signerOpts...)
	if err != nil {
		h.logger.Error("signer construction failed", "provider", req.Provider, "err", err)
		h.renderError(w, r, http.StatusUnprocessableEntity, "provider credentials are not valid key material")
		return
	}

	signed, err := signer.Sign(req.Path)
	if err != nil {
		h.logger.Error("signing failed", "provider", req.Provider, "err", err)
		h.renderError(w, r, http.StatusInternalServerError, "signing failed")
		return
	}

	expires, err := expiresOf(signed)
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "signing failed")
		return
	}

	h.logger.Info("share URL created",
		"provider", req.Provider,
		"uid", signer.UID(),
		"expires", expires)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ShareResponse{
		URL:     signed,
		UID:     signer.UID(),
		Expires: expires,
	})
}

// subject returns the verified token subject, or "" when the handler runs
// without JWT protection.
func (h *ShareHandler) subject(r *http.Request) string {
	if h.tokenAuth == nil {
		return ""
	}
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

func (h *ShareHandler) renderResolveError(w http.ResponseWriter, r *http.Request, provider string, err error) {
	var resErr *jclouds.ResolutionError
	if errors.As(err, &resErr) {
		h.renderError(w, r, http.StatusNotFound, resErr.Error())
		return
	}
	var cfgErr *jclouds.ConfigurationError
	if errors.As(err, &cfgErr) {
		h.renderError(w, r, http.StatusBadRequest, cfgErr.Error())
		return
	}
	h.logger.Error("spec resolution failed", "provider", provider, "err", err)
	h.renderError(w, r, http.StatusInternalServerError, "spec resolution failed")
}

func (h *ShareHandler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrResponse{Error: msg})
}

func expiresOf(signed string) (int64, error) {
	u, err := url.Parse(signed)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(u.Query().Get("expires"), 10, 64)
}
