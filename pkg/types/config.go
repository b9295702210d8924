package types

import (
	"errors"
	"net/url"
)

// StoreConfig holds backend selection and parameters for Store.Attach.
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Default cookie names issued by the catalog backend session.
const (
	DefaultCSRFCookie    = "csrftoken"
	DefaultSessionCookie = "sessionid"
)

// ClientConfig holds everything the HTTP transport needs to talk to the
// catalog backend. It is passed explicitly at construction time; the
// transport never reads ambient process state.
type ClientConfig struct {
	BaseURL       string `json:"base_url" yaml:"base_url"`
	CSRFToken     string `json:"csrf_token" yaml:"csrf_token"`
	SessionID     string `json:"session_id" yaml:"session_id"`
	CSRFCookie    string `json:"csrf_cookie" yaml:"csrf_cookie"`
	SessionCookie string `json:"session_cookie" yaml:"session_cookie"`
}

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrBaseURLEmpty   = errors.New("base URL must not be empty")
	ErrBaseURLInvalid = errors.New("base URL must be an absolute http(s) URL")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the StoreConfig is well-formed. It returns a sentinel
// error from this package on failure.
func (c StoreConfig) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// Validate checks that BaseURL is an absolute http or https URL.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrBaseURLEmpty
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrBaseURLInvalid
	}
	return nil
}

// CSRFCookieName returns the configured CSRF cookie name or the default.
func (c ClientConfig) CSRFCookieName() string {
	if c.CSRFCookie != "" {
		return c.CSRFCookie
	}
	return DefaultCSRFCookie
}

// SessionCookieName returns the configured session cookie name or the default.
func (c ClientConfig) SessionCookieName() string {
	if c.SessionCookie != "" {
		return c.SessionCookie
	}
	return DefaultSessionCookie
}
