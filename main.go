// Package main is the entry point for the ivq application.
package main

import (
	"github.com/ivq-cli/ivq/cmd"
	"github.com/ivq-cli/ivq/config"
	"github.com/ivq-cli/ivq/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
