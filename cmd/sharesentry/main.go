// Command sharesentry is the ShareSentry command line.
package main

import (
	"os"

	"github.com/pwnpy/sharesentry/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
