package main

import "github.com/ryanhaqueIT/agentdeck/internal/cli"

func main() {
	cli.Execute()
}
