// Package catalog holds module-level metadata for the catalog client.
package catalog

// Version is the release of the catalog module and CLI.
const Version = "0.3.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/catalog"
