package main

import (
	"context"
	"os"

	"daybook/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	root := cli.NewRootCmd()
	root.Version = version
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
