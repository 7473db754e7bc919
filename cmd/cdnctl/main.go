package main

import (
	"fmt"
	"os"

	"github.com/developer-overheid-nl/don-content-delivery/cmd/cdnctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
