package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/chartguess/internal/external/alphavantage"
	"github.com/wonny/chartguess/internal/external/stooq"
	"github.com/wonny/chartguess/internal/game"
	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/internal/store"
	"github.com/wonny/chartguess/pkg/config"
	"github.com/wonny/chartguess/pkg/database"
	"github.com/wonny/chartguess/pkg/httputil"
	"github.com/wonny/chartguess/pkg/logger"
	"github.com/wonny/chartguess/pkg/redis"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "터미널에서 게임 플레이",
	Long: `터미널에서 업다운 게임을 플레이합니다.

과거의 랜덤한 시점에서 차트 일부를 보여주고,
다음 거래일 종가의 방향(up/down)을 입력받아 채점합니다.

Example:
  go run ./cmd/chartguess play --symbol AAPL
  go run ./cmd/chartguess play --random
  go run ./cmd/chartguess play --symbol AAPL --seed 42`,
	RunE: runPlay,
}

var (
	playSymbol string
	playRandom bool
	playSeed   int64
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playSymbol, "symbol", "", "플레이할 심볼 (예: AAPL)")
	playCmd.Flags().BoolVar(&playRandom, "random", false, "거래량 상위 목록에서 랜덤 선택")
	playCmd.Flags().Int64Var(&playSeed, "seed", 0, "시작일 추첨 시드 (0 = 현재 시각)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playSymbol == "" && !playRandom {
		return fmt.Errorf("either --symbol or --random is required")
	}

	// 1. Load config; terminal play wants quiet console logs
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.LogFormat = "console"
	if !verbose {
		cfg.LogLevel = "error"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Optional price archive
	var archive game.SeriesArchive
	if cfg.Database.Enabled() {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo := store.NewPriceRepository(db.Pool)
		if err := repo.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate price archive: %w", err)
		}
		archive = repo
	}

	// 4. Redis payload cache (no-op when unavailable)
	rdb, err := redis.New(cfg)
	if err != nil {
		rdb = redis.Disabled()
	}
	defer rdb.Close()

	cache := redis.NewCache(rdb, "chartguess")

	// 5. Provider, loader, session
	seed := playSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := series.NewRandSource(seed)

	provider := alphavantage.NewClient(cfg, httputil.New(cfg, log), log)
	loader := game.NewProviderLoader(provider, cache, archive, log)
	picker := series.NewPicker(src, cfg.Game.LookbackMinDays, cfg.Game.LookbackMaxDays)
	session := game.NewSession(loader, picker, cfg.Game)

	// 6. Resolve the symbol
	symbol := strings.ToUpper(playSymbol)
	if playRandom {
		directory := stooq.NewClient(cfg, httputil.New(cfg, log), log)
		listings, err := directory.MostActive(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch most active symbols: %w", err)
		}
		if len(listings) == 0 {
			return fmt.Errorf("symbol directory returned no listings")
		}
		pick := listings[src.Intn(len(listings))]
		symbol = pick.Symbol
		fmt.Printf("Mystery symbol drawn from %d most active listings\n", len(listings))
	}

	// 7. Start the game
	result, err := session.Start(cmd.Context(), symbol)
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}

	fmt.Println("\n=== ChartGuess ===")
	fmt.Println("Guess whether the next close goes up or down.")
	renderWindow(result, playRandom)

	// 8. Guess loop
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n[u]p / [d]own / [q]uit > ")
		if !scanner.Scan() {
			break
		}

		input := strings.ToLower(strings.TrimSpace(scanner.Text()))
		var direction game.Direction
		switch input {
		case "u", "up":
			direction = game.Up
		case "d", "down":
			direction = game.Down
		case "q", "quit", "exit":
			finishPlay(session, symbol)
			return nil
		case "":
			continue
		default:
			fmt.Println("Please enter u, d, or q.")
			continue
		}

		result = session.Guess(direction)
		fmt.Printf("\n%s  (score: %d)\n", result.Message, result.Score)
		renderWindow(result, playRandom)

		if session.Status() == game.StatusExhausted {
			finishPlay(session, symbol)
			return nil
		}
	}

	return scanner.Err()
}

// finishPlay prints the final score, revealing the symbol in random mode
func finishPlay(session *game.Session, symbol string) {
	if playRandom {
		fmt.Printf("\nThe symbol was %s.\n", symbol)
	}
	fmt.Printf("Final score: %d\n", session.Score())
}

// renderWindow prints the reveal window as a simple text chart.
// In random mode the symbol stays hidden so the ticker gives nothing away.
func renderWindow(result *game.Result, hideSymbol bool) {
	if len(result.Window) == 0 {
		return
	}

	if hideSymbol {
		fmt.Println("\n  ??? (mystery symbol)")
	} else {
		fmt.Printf("\n  %s\n", result.Symbol)
	}

	for i, p := range result.Window {
		marker := "  "
		if i > 0 {
			prev := result.Window[i-1].Close
			switch {
			case p.Close > prev:
				marker = "▲ "
			case p.Close < prev:
				marker = "▼ "
			default:
				marker = "= "
			}
		}
		fmt.Printf("  %s  %10.2f  %s\n", p.Date.Format("2006-01-02"), p.Close, marker)
	}
}
