package main

import "github.com/moyu-x/framemover/cmd"

func main() {
	cmd.Execute()
}
