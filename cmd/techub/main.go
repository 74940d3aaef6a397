// Package main is the entry point for the TecHub CLI.
package main

import (
	"github.com/techub/techub/cmd/techub/commands"
)

func main() {
	commands.Execute()
}
