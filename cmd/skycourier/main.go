package main

import (
	"github.com/andrescamacho/skycourier-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
