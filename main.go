// Package main is the entry point of the gitpulse CLI.
package main

import (
	"github.com/huangsam/gitpulse/cmd"
	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseCaching()
	if err != nil {
		contract.LogFatal("gitpulse failed", err)
	}
}
