package main

import "github.com/versyx/prospector/cmd/prospector-updater/cmd"

func main() {
	cmd.Execute()
}
