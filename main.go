package main

import (
	"os"

	"github.com/lakshmanachimata/legal-mcp-platform/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
