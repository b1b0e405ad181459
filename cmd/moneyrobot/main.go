package main

import (
	"os"

	"github.com/alext/moneyrobot/cmd/moneyrobot/commands"
)

// main is the entry point for the moneyrobot CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
