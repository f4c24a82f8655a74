// Command hmem runs the hierarchical memory store: an MCP stdio adapter
// (hmem serve) plus a handful of one-shot CLI commands, backed by the
// store defined in internal/store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
