package main

import "github.com/versyx/prospector/cmd/prospector-agent/cmd"

func main() {
	cmd.Execute()
}
