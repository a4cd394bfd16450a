package main

import "github.com/Vaibhav2543/deep-researcher/internal/cli"

func main() {
	cli.Execute()
}
