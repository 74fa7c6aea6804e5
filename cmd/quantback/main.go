package main

import (
	"os"

	"github.com/fengyx/quantback/cmd/quantback/commands"
)

// main is the entry point for the quantback CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
