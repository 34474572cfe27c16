package main

import "github.com/ghostpool/gopoold/internal/cli"

func main() {
	cli.Execute()
}
