package main

import "github.com/mjdetullio/sonar-build-breaker/internal/cli"

// These variables are populated by the build via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
