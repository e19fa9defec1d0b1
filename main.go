package main

import (
	"os"

	"github.com/KCuppens/bedrock-cms-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
