package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/ardnew/quill/cli"
	"github.com/ardnew/quill/log"
	"github.com/ardnew/quill/shell"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		var exit shell.ExitRequest
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}

		log.Error(
			"run failed",
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
