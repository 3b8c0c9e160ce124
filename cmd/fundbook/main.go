package main

import (
	"os"

	"github.com/fundbook-dev/fundbook/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
