package main

import (
	"os"

	"github.com/afterdarksys/helpdesk/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
