// Command scanlift extracts text from PDFs and scanned images.
package main

import (
	"context"
	"os"
	"os/signal"
)

// Set at build time with -ldflags "-X main.gitCommit=...".
var (
	gitCommit = "none"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
