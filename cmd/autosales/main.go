package main

import (
	"context"
	"fmt"
	"os"

	"autosales/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "autosales:", err)
		os.Exit(1)
	}
}
