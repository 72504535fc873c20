package main

import (
	"context"
	"fmt"
	"os"

	"github.com/startbuilds/excel-mysql-exporter/internal/app"
)

func main() {
	cmd := app.NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
