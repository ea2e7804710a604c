package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/chartguess/internal/api"
	"github.com/wonny/chartguess/internal/api/handlers"
	"github.com/wonny/chartguess/internal/external/alphavantage"
	"github.com/wonny/chartguess/internal/game"
	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/internal/store"
	"github.com/wonny/chartguess/pkg/config"
	"github.com/wonny/chartguess/pkg/database"
	"github.com/wonny/chartguess/pkg/httputil"
	"github.com/wonny/chartguess/pkg/logger"
	"github.com/wonny/chartguess/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `게임 API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 세션별 게임 엔드포인트 제공
- 웹소켓 플레이 엔드포인트 제공

Endpoints:
  GET  /health                    - Health check
  POST /api/game/{id}/start       - 게임 시작
  POST /api/game/{id}/guess       - 업다운 추측
  GET  /api/game/{id}             - 현재 상태 조회
  DEL  /api/game/{id}             - 세션 제거
  GET  /api/game/ws               - 웹소켓 플레이
  GET  /api/series/{symbol}/daily - 일봉 시계열 조회

Example:
  go run ./cmd/chartguess api
  go run ./cmd/chartguess api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ChartGuess API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to the price archive database (optional)
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

		log.Info("Connected to price archive database")
	} else {
		log.Info("No DATABASE_URL configured, running without price archive")
	}

	// 4. Connect to Redis (cache is a no-op when unavailable)
	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without payload cache")
		rdb = redis.Disabled()
	}
	defer rdb.Close()

	cache := redis.NewCache(rdb, "chartguess")

	// 5. Create the provider client with its own HTTP client
	providerHTTP := httputil.New(cfg, log)
	provider := alphavantage.NewClient(cfg, providerHTTP, log)

	// 6. Create the series loader chain
	loader := game.NewProviderLoader(provider, cache, archive, log)

	// 7. Create the session factory. Each session draws from its own
	// random source, so concurrent games never share rand state.
	factory := func() *game.Session {
		src := series.NewRandSource(time.Now().UnixNano())
		picker := series.NewPicker(src, cfg.Game.LookbackMinDays, cfg.Game.LookbackMaxDays)
		return game.NewSession(loader, picker, cfg.Game)
	}

	// 8. Create the session manager
	manager := game.NewManager(factory)

	// 9. Create handlers
	gameHandler := handlers.NewGameHandler(manager, log)
	seriesHandler := handlers.NewSeriesHandler(loader, log)
	wsHandler := handlers.NewWSHandler(factory, log)

	// 10. Create router
	router := api.NewRouter(gameHandler, seriesHandler, wsHandler, log)

	// 11. Create server
	server := api.New(cfg, log, router)

	// 12. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/game/{id}/start")
	fmt.Println("  POST /api/game/{id}/guess")
	fmt.Println("  GET  /api/game/{id}")
	fmt.Println("  GET  /api/game/ws")
	fmt.Println("  GET  /api/series/{symbol}/daily")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
