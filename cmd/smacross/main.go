package main

import "github.com/rustyeddy/smacross/internal/cli"

func main() {
	cli.Execute()
}
