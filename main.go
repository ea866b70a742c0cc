package main

import "github.com/boxkit/cli/cmd"

func main() {
	cmd.Execute()
}
