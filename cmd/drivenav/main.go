package main

import (
	"os"

	"github.com/drivenav/drivenav/internal/cli"
)

// Version information, overridable via -ldflags at release time.
var (
	Version   = "v0.3.0"
	BuildTime = "2026-08-26"
)

func main() {
	cli.Version = Version
	cli.BuildTime = BuildTime
	os.Exit(cli.Execute())
}
