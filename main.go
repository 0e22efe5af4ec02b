// Package main is the entry point for the mathnb CLI application.
// It drives a computer-algebra notebook session from the terminal.
package main

import (
	"mathnb/cli/cmd"
)

func main() {
	cmd.Execute()
}
