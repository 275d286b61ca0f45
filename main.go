package main

import "github.com/devicelab-dev/ecp-runner/pkg/cli"

func main() {
	cli.Execute()
}
