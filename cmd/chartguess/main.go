package main

import (
	"os"

	"github.com/wonny/chartguess/cmd/chartguess/commands"
)

// main is the entry point for the ChartGuess CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/chartguess [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
