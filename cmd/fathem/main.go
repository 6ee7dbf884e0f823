package main

import "github.com/vietddude/fathem/internal/cli"

func main() {
	cli.Execute()
}
