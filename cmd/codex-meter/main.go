package main

import (
	"os"

	"github.com/codex-meter/codex-meter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
