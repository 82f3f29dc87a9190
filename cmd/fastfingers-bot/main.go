package main

import "github.com/pfrederiksen/fastfingers-bot/internal/cli"

func main() {
	cli.Execute()
}
