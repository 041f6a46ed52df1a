package main

import "github.com/reflex-tools/rxdocs/cmd"

func main() {
	cmd.Execute()
}
