package main

import (
	"os"

	"github.com/Beekeepers-Inc/rats/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
