// Package main provides the roll CLI for evaluating dice-notation expressions.
package main

import (
	"os"

	"github.com/cory-johannsen/diceroller/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
