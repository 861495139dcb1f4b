// Package api is the client for the external document service REST API.
//
// Every call attaches "Authorization: Bearer <credential>" when the request
// context carries a credential (see WithCredentials). A 401 from any endpoint
// other than login and register runs the context's Unauthorized hook before
// the error is returned, and the returned error reports Handled.
//
// Calls are single attempt; there are no retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/config"
	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
)

// Resource families, used for cache invalidation and metrics.
const (
	FamilyAuth      = "auth"
	FamilyDocuments = "documents"
	FamilyUsers     = "users"
	FamilyRequests  = "requests"
)

var ErrInvalidID = errors.New("invalid resource id")

// Observer receives one call per request and per cache lookup.
type Observer interface {
	APIRequest(family, outcome string)
	CacheLookup(hit bool)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; Timeout is ignored when set
	Cache      *QueryCache  // optional
	Observer   Observer     // optional
}

// ConfigFrom maps the API section of the application config.
func ConfigFrom(cfg config.API) Config {
	return Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}
}

// Client talks to the document service. One Client is shared by all requests;
// per-request state travels in the context.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cache      *QueryCache
	obs        Observer

	Auth      *AuthService
	Documents *DocumentService
	Users     *UserService
	Requests  *RequestService
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultAPIURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{baseURL: base, httpClient: httpClient, cache: cfg.Cache, obs: cfg.Observer}
	c.Auth = &AuthService{c: c}
	c.Documents = &DocumentService{c: c}
	c.Users = &UserService{c: c}
	c.Requests = &RequestService{c: c}
	return c, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// call describes one outgoing request.
type call struct {
	method   string
	family   string
	segments []string
	query    url.Values
	body     any

	// rawBody, when set, is sent as is with contentType.
	rawBody       io.Reader
	contentType   string
	contentLength int64

	// authEntry marks login and register: a 401 there is a rejected
	// sign-in, not an expired session.
	authEntry bool

	cacheTTL    time.Duration // > 0 makes a GET cacheable
	invalidates []string      // families dropped from the cache on success
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	u := c.baseURL.JoinPath(cl.segments...)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	src := credentialsFrom(ctx)
	var credential entities.Credential
	if src != nil {
		if cred, ok := src.Credential(ctx); ok {
			credential = cred
		}
	}
	hasCredential := !credential.IsZero()

	var key string
	if cl.cacheTTL > 0 && hasCredential && c.cache != nil {
		key = cacheKey(credential.Digest(), cl.family, strings.TrimPrefix(u.RequestURI(), c.baseURL.Path))
		if raw, ok := c.cache.get(key); ok {
			c.observeCache(true)
			return decode(raw, out)
		}
		c.observeCache(false)
	}

	req, err := c.newRequest(ctx, cl, u.String())
	if err != nil {
		return err
	}
	if hasCredential {
		req.Header.Set("Authorization", "Bearer "+string(credential))
	}

	logger := zerolog.Ctx(ctx).With().Str("method", cl.method).Str("path", u.Path).Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl.family, apperrors.KindTransport.String())
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("document service unreachable")
		return transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe(cl.family, apperrors.KindTransport.String())
		return apperrors.Wrap(apperrors.KindTransport, err, "Failed to read the response. Please try again.")
	}
	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("document service call")

	if resp.StatusCode == http.StatusUnauthorized && !cl.authEntry {
		c.observe(cl.family, apperrors.KindAuthzFailure.String())
		e := &apperrors.Error{
			Kind:    apperrors.KindAuthzFailure,
			Status:  resp.StatusCode,
			Message: messageOr(raw, "Your session has expired. Please log in again."),
		}
		if src != nil {
			src.Unauthorized(ctx)
			e.MarkHandled()
		}
		return e
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := apperrors.KindTransport
		fallback := fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
		if cl.authEntry {
			kind = apperrors.KindAuthFailure
		}
		c.observe(cl.family, kind.String())
		return &apperrors.Error{Kind: kind, Status: resp.StatusCode, Message: messageOr(raw, fallback)}
	}

	var head struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &head); err != nil {
			c.observe(cl.family, apperrors.KindTransport.String())
			return apperrors.Wrap(apperrors.KindTransport, err, "Unexpected response from the document service.")
		}
	}
	if head.Success != nil && !*head.Success {
		kind := apperrors.KindTransport
		if cl.authEntry {
			kind = apperrors.KindAuthFailure
		}
		c.observe(cl.family, kind.String())
		msg := head.Message
		if msg == "" {
			msg = "An error occurred"
		}
		return &apperrors.Error{Kind: kind, Status: resp.StatusCode, Message: msg}
	}

	c.observe(cl.family, "ok")
	if key != "" {
		c.cache.set(key, raw, cl.cacheTTL)
	}
	if hasCredential {
		for _, family := range cl.invalidates {
			c.cache.Invalidate(credential.Digest(), family)
		}
	}
	return decode(raw, out)
}

func (c *Client) newRequest(ctx context.Context, cl call, target string) (*http.Request, error) {
	body, contentType := cl.rawBody, cl.contentType
	if body == nil && cl.body != nil {
		encoded, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(encoded), "application/json"
	}
	if contentType == "" {
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if cl.contentLength > 0 {
		req.ContentLength = cl.contentLength
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) observe(family, outcome string) {
	if c.obs != nil {
		c.obs.APIRequest(family, outcome)
	}
}

func (c *Client) observeCache(hit bool) {
	if c.obs != nil {
		c.obs.CacheLookup(hit)
	}
}

func decode(raw []byte, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(apperrors.KindTransport, err, "Unexpected response from the document service.")
	}
	return nil
}

// messageOr extracts the service's "message" field from an error body.
func messageOr(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fallback
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.Wrap(apperrors.KindTransport, err, "The request timed out. Please try again.")
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.KindTransport, err, "The request was cancelled.")
	}
	return apperrors.Wrap(apperrors.KindTransport, err, "Network error. Please check your connection and try again.")
}

// checkID rejects ids that would escape their path segment.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/?#\\") {
		return apperrors.Wrap(apperrors.KindValidation, fmt.Errorf("%w: %q", ErrInvalidID, id), "Invalid identifier")
	}
	return nil
}
