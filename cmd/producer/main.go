package main

import "github.com/Paintersrp/subproc/internal/cli"

func main() {
	cli.ExecuteProducer()
}
