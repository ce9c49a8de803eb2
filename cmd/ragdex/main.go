package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kailas-cloud/ragdex/internal/transport/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.DefaultFactory).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
