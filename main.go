package main

import "github.com/matheuskafuri/newswave/cmd"

// Overridden with -ldflags at release build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
