package cmd

import (
	"fmt"
	"io"
)

const banner = `
   ___             ____ _ _
  / _ \ _   _ _ __/ ___(_) |_ _   _
 | | | | | | | '__| |   | | __| | | |
 | |_| | |_| | |  | |___| | |_| |_| |
  \___/ \__,_|_|   \____|_|\__|\__, |
                               |___/
`

func printBanner(w io.Writer, subtitle string) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  %s - Version %s\x1b[0m\n\n", subtitle, Version)
}
