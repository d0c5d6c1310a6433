// Package main is the entry point for gstcheck, the operator CLI for GSTIN
// verification and schema management.
package main

import (
	"os"

	"turia/cmd/gstcheck/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
