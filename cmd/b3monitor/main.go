package main

import (
	"os"

	"github.com/wonny/b3monitor/cmd/b3monitor/commands"
)

// main is the entry point for the b3monitor CLI
// ⭐ single CLI entry point: go run ./cmd/b3monitor [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
