package main

import "github.com/versyx/prospector/cmd/prospector-builder/cmd"

func main() {
	cmd.Execute()
}
