package main

import (
	"os"

	"github.com/soundprediction/go-rankllm/cmd/rankllm"
)

func main() {
	if err := rankllm.Execute(); err != nil {
		os.Exit(1)
	}
}
