package main

import (
	"os"

	"github.com/luofan/yupen/cmd/yupen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
