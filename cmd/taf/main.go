package main

import (
	"os"

	"github.com/peteraglen/taf-go-client/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
