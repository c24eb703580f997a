// Git-llm-analyzer answers natural-language questions about a code repository.
//
// Usage:
//
//	# Index the current directory and ask one question
//	git-llm-analyzer ask "where is the HTTP router configured?"
//
//	# Chat about a remote repository
//	git-llm-analyzer chat --repo github:owner/repo
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avishayil/git-llm-analyzer/internal/adapters/driving/cli"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetFactory(newFactory())

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
