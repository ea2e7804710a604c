package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/chartguess/internal/external/alphavantage"
	"github.com/wonny/chartguess/internal/external/stooq"
	"github.com/wonny/chartguess/internal/scheduler"
	"github.com/wonny/chartguess/internal/scheduler/jobs"
	"github.com/wonny/chartguess/internal/store"
	"github.com/wonny/chartguess/pkg/config"
	"github.com/wonny/chartguess/pkg/database"
	"github.com/wonny/chartguess/pkg/httputil"
	"github.com/wonny/chartguess/pkg/logger"
	"github.com/wonny/chartguess/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/chartguess scheduler start
  go run ./cmd/chartguess scheduler list
  go run ./cmd/chartguess scheduler run archive_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- archive_refresh: 매일 오후 10시 (추적 심볼 아카이브 갱신)
- directory_refresh: 6시간마다 (거래량 상위 목록 갱신)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ChartGuess Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob is asynchronous; give the job a chance to finish
	fmt.Println("Job started, waiting for completion (Ctrl+C to stop)")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// 3. Connect to the price archive database (optional)
	var archive *store.PriceRepository
	if cfg.Database.Enabled() {
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		cleanups = append(cleanups, db.Close)

		archive = store.NewPriceRepository(db.Pool)
	}

	// 4. Connect to Redis (cache is a no-op when unavailable)
	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		rdb = redis.Disabled()
	}
	cleanups = append(cleanups, func() { _ = rdb.Close() })

	cache := redis.NewCache(rdb, "chartguess")

	// 5. Create external clients
	provider := alphavantage.NewClient(cfg, httputil.New(cfg, log), log)
	directory := stooq.NewClient(cfg, httputil.New(cfg, log), log)

	// 6. Create scheduler and register jobs
	sched := scheduler.New(log)

	if err := sched.AddJob(jobs.NewArchiveRefreshJob(provider, archive, cache, cfg, log)); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewDirectoryRefreshJob(directory, cache, log)); err != nil {
		cleanup()
		return nil, nil, err
	}

	return sched, cleanup, nil
}
