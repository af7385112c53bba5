package main

import "deskbook/internal/cli"

func main() {
	cli.Execute()
}
