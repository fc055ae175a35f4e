// Command mailctl runs operator tasks against the configured mail transport
// and subscriber store.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
