package main

import (
	"os"

	"github.com/yugabyte/llvm-installer/cmd/llvm-installer/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
