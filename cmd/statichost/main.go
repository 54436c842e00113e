package main

import (
	"context"
	"os"

	"github.com/yndnr/statichost-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
