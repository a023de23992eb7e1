package main

import "github.com/ourcity/ourcity-cli/cmd/ourcity/cmd"

func main() {
	cmd.Execute()
}
