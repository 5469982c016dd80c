package main

import "gemlaunch/internal/cli"

func main() {
	cli.Execute()
}
