package main

import (
	"os"

	"github.com/matthewbaird/cloudconsole/cmd/cloudconsole/commands"
)

// Version is the current version of cloudconsole.
const Version = "v0.1.0"

func main() {
	commands.SetVersion(Version)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
