// Command cw-inspect inspects the TLS certificates served by remote hosts.
package main

import (
	"os"

	"github.com/certwatch-app/cw-inspect/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
