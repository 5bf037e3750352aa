// Package main is the entry point for the dispatchd command.
package main

import (
	"os"

	"github.com/stacklok/gamemesh/cmd/dispatchd/app"
	"github.com/stacklok/gamemesh/internal/corelog"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		corelog.Errorf("%v", err)
		os.Exit(1)
	}
}
