// Command jarremap rewrites a jar from one naming scheme to another and
// relocates bundled libraries into a private namespace.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
