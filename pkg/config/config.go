package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional price archive)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Provider  ProviderConfig
	Directory DirectoryConfig

	// Game rules
	Game GameConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether the price archive database is configured.
// DATABASE_URL 미설정 시 아카이브 없이 동작
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ProviderConfig holds daily time-series provider API configuration
type ProviderConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	Timeout           time.Duration
}

// DirectoryConfig holds the symbol directory (Stooq) configuration
type DirectoryConfig struct {
	BaseURL string
}

// GameConfig holds the reveal/guess game rules
type GameConfig struct {
	LookbackMinDays int // start date must be at least this many calendar days old
	LookbackMaxDays int // start date must be at most this many calendar days old
	MinPriorDays    int // trading days required before the start date
	WindowSize      int // prior points shown in each reveal window
	MaxPickRetries  int // draws before giving up on an admissible start date

	// TrackedSymbols are refreshed into the archive by the scheduler
	TrackedSymbols []string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Provider: ProviderConfig{
			BaseURL:           getEnv("PROVIDER_BASE_URL", "https://www.alphavantage.co"),
			APIKey:            getEnv("PROVIDER_API_KEY", ""),
			RequestsPerMinute: getEnvAsInt("PROVIDER_REQUESTS_PER_MINUTE", 5),
			Timeout:           getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
		},

		Directory: DirectoryConfig{
			BaseURL: getEnv("DIRECTORY_BASE_URL", "https://stooq.com"),
		},

		// Game rules
		Game: GameConfig{
			LookbackMinDays: getEnvAsInt("GAME_LOOKBACK_MIN_DAYS", 7),
			LookbackMaxDays: getEnvAsInt("GAME_LOOKBACK_MAX_DAYS", 100),
			MinPriorDays:    getEnvAsInt("GAME_MIN_PRIOR_DAYS", 7),
			WindowSize:      getEnvAsInt("GAME_WINDOW_SIZE", 7),
			MaxPickRetries:  getEnvAsInt("GAME_MAX_PICK_RETRIES", 5),
			TrackedSymbols:  getEnvAsList("GAME_TRACKED_SYMBOLS", nil),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Provider.RequestsPerMinute <= 0 {
		return fmt.Errorf("PROVIDER_REQUESTS_PER_MINUTE must be positive")
	}

	// Game rules must stay mutually consistent
	g := c.Game
	if g.LookbackMinDays <= 0 || g.LookbackMaxDays < g.LookbackMinDays {
		return fmt.Errorf("GAME_LOOKBACK window is invalid: [%d, %d]", g.LookbackMinDays, g.LookbackMaxDays)
	}
	if g.MinPriorDays <= 0 || g.WindowSize <= 0 {
		return fmt.Errorf("GAME_MIN_PRIOR_DAYS and GAME_WINDOW_SIZE must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
