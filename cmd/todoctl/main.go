// Package main is the entry point for the todoctl CLI tool.
package main

import (
	"os"

	"github.com/phrazzld/todo-api/cmd/todoctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
