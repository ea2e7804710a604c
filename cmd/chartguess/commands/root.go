package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chartguess",
	Short: "ChartGuess - 과거 주가 업다운 게임 엔진",
	Long: `ChartGuess Unified CLI

과거 일봉 차트 일부를 보여주고 다음 종가의 방향을 맞추는 게임.
랜덤한 과거 시점에서 시작해, 맞출 때마다 하루씩 공개합니다.

Usage:
  go run ./cmd/chartguess [command]

Examples:
  go run ./cmd/chartguess api
  go run ./cmd/chartguess play --symbol AAPL
  go run ./cmd/chartguess play --random
  go run ./cmd/chartguess fetch MSFT
  go run ./cmd/chartguess scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
