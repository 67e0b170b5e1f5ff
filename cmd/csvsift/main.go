package main

import "github.com/harborscm/csvsift/internal/cli"

func main() {
	cli.Execute()
}
