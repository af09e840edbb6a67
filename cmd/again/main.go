package main

import "andy.dev/again/internal/cli"

func main() {
	cli.Execute()
}
