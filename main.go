package main

import "github.com/pulseai/apiserver/cmd"

func main() {
	cmd.Execute()
}
