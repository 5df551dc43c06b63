// Package main is the entry point for ledgerctl.
package main

import (
	"os"

	"github.com/restoreops/backend/cmd/ledgerctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
