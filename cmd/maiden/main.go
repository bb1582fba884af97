package main

import (
	"os"

	"github.com/tormodhaugland/maiden/cmd/maiden/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
