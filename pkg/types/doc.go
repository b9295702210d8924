// Package types defines the Transport, Store and Table interfaces, the closed
// set of catalog record kinds, configuration, and the standard error types
// shared by the catalog client, the local server, and the CLI.
package types
