// Package transporttest provides a scripted types.Transport for tests.
package transporttest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Call is one request seen by the Recorder.
type Call struct {
	Method string
	Path   string
	Body   json.RawMessage
}

// JSON decodes the call body into a map. Returns nil when there is no body.
func (c Call) JSON() map[string]any {
	if len(c.Body) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Body, &m); err != nil {
		return nil
	}
	return m
}

type response struct {
	status int
	body   string
	err    error
}

// Recorder records every request and answers from scripted routes keyed by
// method and path. Unscripted requests get a 404 RemoteError.
type Recorder struct {
	mu     sync.Mutex
	routes map[string]response
	calls  []Call

	// OnRequest, when set, runs after the call is recorded and before the
	// response is produced. Tests use it to act while a request is in flight.
	OnRequest func(Call)
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{routes: make(map[string]response)}
}

// On scripts the response for method and path.
func (r *Recorder) On(method, path string, status int, body string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[method+" "+path] = response{status: status, body: body}
	return r
}

// Fail scripts a transport-level failure for method and path.
func (r *Recorder) Fail(method, path string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[method+" "+path] = response{err: err}
	return r
}

// Request implements types.Transport.
func (r *Recorder) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	call := Call{Method: method, Path: path}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		call.Body = data
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	resp, ok := r.routes[method+" "+path]
	hook := r.OnRequest
	r.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		resp = response{status: http.StatusNotFound, body: `{"detail":"Not found."}`}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	if resp.status >= 400 {
		return nil, &types.RemoteError{Method: method, URL: path, StatusCode: resp.status, Body: []byte(resp.body)}
	}
	if resp.body == "" {
		return nil, nil
	}
	return json.RawMessage(resp.body), nil
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Last returns the most recent call. It panics when nothing was recorded.
func (r *Recorder) Last() Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}
