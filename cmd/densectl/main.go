package main

import (
	"fmt"
	"os"

	"github.com/danmuck/densecode/internal/logging"
)

func main() {
	logging.ConfigureRuntime()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "densectl: %v\n", err)
		os.Exit(1)
	}
}
