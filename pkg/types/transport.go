package types

import (
	"context"
	"encoding/json"
)

// Transport performs one request against the catalog backend.
//
// path is resolved against the backend base URL. body, when non-nil, is
// encoded as JSON. A status >= 400 is returned as *RemoteError. A successful
// response yields the raw JSON body, or nil when the body is empty.
// Implementations perform no retries.
type Transport interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}
