// Command catalog browses and edits a schema metadata catalog and can run a
// local catalog backend.
package main

import "github.com/mesh-intelligence/catalog/internal/cli"

func main() {
	cli.Main()
}
