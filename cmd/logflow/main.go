package main

import (
	"os"

	"github.com/msto63/logflow/cmd/logflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
