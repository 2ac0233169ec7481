package main

import "github.com/Tiliavir/nicolog/cmd"

func main() {
	cmd.Execute()
}
