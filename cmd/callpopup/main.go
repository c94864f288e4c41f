// Package main is the entry point for the callpopup app.
package main

import (
	"os"

	"github.com/arcceus/phonecall-popup/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
