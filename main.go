package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/sadopc/habitr/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
