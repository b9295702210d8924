// Package server serves the catalog REST wire contract over a types.Store:
// list and create under /api/{resource}/, retrieve, update and delete under
// /api/{resource}/{id}/, guarded by a cookie-to-header CSRF check.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/catalog/internal/log"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

// CSRF cookie and header names.
const (
	CSRFCookie = types.DefaultCSRFCookie
	CSRFHeader = "X-CSRFToken"
)

// Server routes catalog requests to a Store.
type Server struct {
	store   types.Store
	schemas map[string][]string
	log     log.Logger
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithSchemas restricts each resource to the given fields. Unknown keys in
// request bodies are dropped and absent fields are stored as null.
func WithSchemas(schemas map[string][]string) Option {
	return func(s *Server) { s.schemas = schemas }
}

// WithLogger sets the request logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds a Server over an attached store.
func New(store types.Store, opts ...Option) *Server {
	s := &Server{store: store, log: log.Root}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.csrf)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/{resource}", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}/", s.retrieve)
		r.Put("/{id}/", s.update)
		r.Delete("/{id}/", s.destroy)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeDetail(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeDetail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves h on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "took", time.Since(start))
	})
}

// csrf issues a token cookie on safe requests that lack one and requires the
// header to echo the cookie on unsafe requests.
func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CSRFCookie)
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if err != nil || cookie.Value == "" {
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookie,
					Value:    newToken(),
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
				})
			}
		default:
			if err != nil || cookie.Value == "" {
				s.writeDetail(w, http.StatusForbidden, "CSRF Failed: CSRF cookie not set.")
				return
			}
			if r.Header.Get(CSRFHeader) != cookie.Value {
				s.writeDetail(w, http.StatusForbidden, "CSRF Failed: CSRF token missing or incorrect.")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func newToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return strings.ReplaceAll(id.String(), "-", "")
}

func (s *Server) table(w http.ResponseWriter, r *http.Request) (types.Table, string, bool) {
	name := chi.URLParam(r, "resource")
	t, err := s.store.GetTable(name)
	if err != nil {
		s.storeError(w, err)
		return nil, name, false
	}
	return t, name, true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	t, _, ok := s.table(w, r)
	if !ok {
		return
	}
	recs, err := t.Fetch(nil)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(recs),
		"next":     nil,
		"previous": nil,
		"results":  recs,
	})
}

func (s *Server) retrieve(w http.ResponseWriter, r *http.Request) {
	t, _, ok := s.table(w, r)
	if !ok {
		return
	}
	rec, err := t.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	t, name, ok := s.table(w, r)
	if !ok {
		return
	}
	rec, ok := s.readRecord(w, r, name)
	if !ok {
		return
	}
	id, err := t.Set("", rec)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.respondWith(w, t, id, http.StatusCreated)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	t, name, ok := s.table(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := t.Get(id); err != nil {
		s.storeError(w, err)
		return
	}
	rec, ok := s.readRecord(w, r, name)
	if !ok {
		return
	}
	if _, err := t.Set(id, rec); err != nil {
		s.storeError(w, err)
		return
	}
	s.respondWith(w, t, id, http.StatusOK)
}

func (s *Server) destroy(w http.ResponseWriter, r *http.Request) {
	t, _, ok := s.table(w, r)
	if !ok {
		return
	}
	if err := t.Delete(chi.URLParam(r, "id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondWith(w http.ResponseWriter, t types.Table, id string, status int) {
	rec, err := t.Get(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, status, rec)
}

// readRecord decodes the body, applies the resource schema, and checks that
// a name is present.
func (s *Server) readRecord(w http.ResponseWriter, r *http.Request, resource string) (types.Record, bool) {
	body, err := decodeJSON(r)
	if err != nil || body == nil {
		s.writeDetail(w, http.StatusBadRequest, "JSON parse error.")
		return nil, false
	}
	delete(body, "id")

	if fields, ok := s.schemas[resource]; ok {
		for k := range body {
			if !slices.Contains(fields, k) {
				delete(body, k)
			}
		}
		for _, f := range fields {
			if _, ok := body[f]; !ok && f != "id" {
				body[f] = nil
			}
		}
	}

	if name, _ := body["name"].(string); strings.TrimSpace(name) == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field is required."}})
		return nil, false
	}
	return body, true
}

// storeError maps store errors to HTTP responses.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrTableNotFound),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID):
		s.writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, types.ErrInvalidData):
		s.writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("store", "err", err)
		s.writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}
