package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/chartguess/internal/external/alphavantage"
	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/internal/store"
	"github.com/wonny/chartguess/pkg/config"
	"github.com/wonny/chartguess/pkg/database"
	"github.com/wonny/chartguess/pkg/httputil"
	"github.com/wonny/chartguess/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [symbol]",
	Short: "심볼의 일봉 시계열 조회",
	Long: `주어진 심볼의 일봉 시계열을 조회해 검증 결과를 출력합니다.

--save 플래그와 DATABASE_URL이 설정되어 있으면
조회한 시계열을 가격 아카이브에 저장합니다.

Example:
  go run ./cmd/chartguess fetch AAPL
  go run ./cmd/chartguess fetch MSFT --save`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var fetchSave bool

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "아카이브 DB에 저장")
}

func runFetch(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.LogFormat = "console"

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Fetch and validate
	provider := alphavantage.NewClient(cfg, httputil.New(cfg, log), log)

	payload, err := provider.FetchDaily(cmd.Context(), symbol)
	if err != nil {
		return fmt.Errorf("fetch daily payload: %w", err)
	}

	s, err := series.Build(symbol, payload)
	if err != nil {
		return fmt.Errorf("build series: %w", err)
	}

	fmt.Printf("Symbol: %s\n", s.Symbol())
	fmt.Printf("Points: %d\n", s.Len())
	if s.Len() > 0 {
		first := s.At(0)
		last := s.At(s.Len() - 1)
		fmt.Printf("Range:  %s .. %s\n", first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
		fmt.Printf("Last:   %.2f\n", last.Close)
	}

	if !fetchSave {
		return nil
	}

	// 4. Persist to the archive
	if !cfg.Database.Enabled() {
		return fmt.Errorf("--save requires DATABASE_URL to be set")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := store.NewPriceRepository(db.Pool)
	if err := repo.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate price archive: %w", err)
	}
	if err := repo.SaveSeries(cmd.Context(), s); err != nil {
		return fmt.Errorf("save series: %w", err)
	}

	fmt.Printf("Saved %d points to the archive\n", s.Len())
	return nil
}
