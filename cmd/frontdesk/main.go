package main

import (
	"github.com/frontdeskhq/frontdesk/adapter/cli"
)

func main() {
	cli.Execute()
}
