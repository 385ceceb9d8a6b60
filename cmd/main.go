package main

import (
	"os"

	"github.com/soundprediction/texprop/cmd/texprop"
)

func main() {
	if err := texprop.Execute(); err != nil {
		os.Exit(1)
	}
}
