package main

import (
	"os"

	"github.com/bryanchriswhite/swayrst/cmd/swayrst/commands"
)

func main() {
	os.Exit(commands.Execute())
}
