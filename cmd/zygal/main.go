// Package main is the entry point for the zygal prompt.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chmouel/zygal/internal/bootstrap"
	"github.com/chmouel/zygal/internal/buildinfo"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(version, commit, date, builtBy)

	if err := bootstrap.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "zygal: %v\n", err)
		os.Exit(1)
	}
}
