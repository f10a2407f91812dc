// Standalone entry point for the background worker process. Identical to
// `subtrack worker`; exists so worker deployments ship a smaller binary.
package main

import (
	"os"

	"github.com/subtrack-inc/subtrack/internal/interfaces/cli/worker"
)

func main() {
	if err := worker.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
