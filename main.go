package main

import (
	"os"

	"github.com/leadspider/leadspider/cmd"
	"github.com/leadspider/leadspider/core"
)

func main() {
	if err := cmd.Execute(); err != nil {
		core.Logger.Error(err)
		os.Exit(1)
	}
}
