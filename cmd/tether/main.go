// Command tether manages principal-attached entities from the command line.
package main

import (
	"os"

	"github.com/jacentio/tether/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
