// Package main is the single-binary entrypoint for gem.
package main

import "github.com/gemral/gem/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
