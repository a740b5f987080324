package main

import "github.com/brogergvhs/panelfetch/cmd"

func main() {
	cmd.Execute()
}
