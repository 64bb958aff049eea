package main

import "ts-catalog/internal/cli"

func main() {
	cli.Execute()
}
