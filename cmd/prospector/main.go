package main

import "github.com/versyx/prospector/cmd/prospector/cmd"

func main() {
	cmd.Execute()
}
