// Package main is the entry point for the liftlog CLI.
package main

import "github.com/liftlog/liftlog-cli/internal/cli"

func main() {
	cli.Execute()
}
