// Package transport implements types.Transport over HTTP for the catalog
// REST backend.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/mesh-intelligence/catalog/internal/log"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Standard envelope header names.
const (
	HeaderCSRF        = "X-CSRFToken"
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"
	mimeJSON          = "application/json"
)

// HTTP sends catalog requests with the standard envelope: CSRF header,
// JSON accept/content types, and the session cookies held in its jar.
// It is stateless across calls apart from the cookie jar.
type HTTP struct {
	base   *url.URL
	cfg    types.ClientConfig
	client *http.Client
	log    log.Logger
}

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithHTTPClient replaces the underlying client. A client without a cookie
// jar gets one so credentials are forwarded.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) { h.client = c }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l log.Logger) Option {
	return func(h *HTTP) { h.log = l }
}

// New builds an HTTP transport for cfg. The configured CSRF token and
// session ID are planted as cookies on the base URL.
func New(cfg types.ClientConfig, opts ...Option) (*HTTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	h := &HTTP{base: base, cfg: cfg, log: log.Root}
	for _, opt := range opts {
		opt(h)
	}
	if h.client == nil {
		h.client = &http.Client{}
	}
	if h.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c := *h.client
		c.Jar = jar
		h.client = &c
	}

	var cookies []*http.Cookie
	if cfg.CSRFToken != "" {
		cookies = append(cookies, &http.Cookie{Name: cfg.CSRFCookieName(), Value: cfg.CSRFToken, Path: "/"})
	}
	if cfg.SessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: cfg.SessionCookieName(), Value: cfg.SessionID, Path: "/"})
	}
	if len(cookies) > 0 {
		h.client.Jar.SetCookies(base, cookies)
	}
	return h, nil
}

// Request implements types.Transport.
func (h *HTTP) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	target, err := h.resolve(path)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(HeaderAccept, mimeJSON)
	req.Header.Set(HeaderContentType, mimeJSON)
	if token := h.CSRFToken(); token != "" {
		req.Header.Set(HeaderCSRF, token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	h.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		return nil, &types.RemoteError{
			Method:     method,
			URL:        path,
			StatusCode: resp.StatusCode,
			Body:       bytes.TrimSpace(data),
		}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s %s: response is not valid JSON", method, path)
	}
	return json.RawMessage(data), nil
}

// CSRFToken returns the anti-forgery token currently held in the cookie jar.
// The backend may rotate it on any response.
func (h *HTTP) CSRFToken() string {
	name := h.cfg.CSRFCookieName()
	for _, c := range h.client.Jar.Cookies(h.base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// resolve joins path onto the base URL, keeping any base path prefix.
func (h *HTTP) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	u := *h.base
	u.Path = strings.TrimSuffix(h.base.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return &u, nil
}
