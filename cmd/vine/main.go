package main

import (
	"os"

	"github.com/rustyeddy/vine/cmd/vine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
