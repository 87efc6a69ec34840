package main

import "github.com/attaboy/playerdata/internal/cli"

func main() {
	cli.Execute()
}
