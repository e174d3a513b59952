package main

import (
	"os"

	"github.com/noah-isme/point-planner/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
