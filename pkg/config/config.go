package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else; components
// receive the values they need through their constructors.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Shared secret required by the /cron/* trigger endpoints.
	CronSecret string

	// Data holds every on-disk location the engine writes to.
	Data DataConfig

	// Redis (optional, the engine runs fine without it)
	Redis RedisConfig

	// External vendors
	Eastmoney EastmoneyConfig
	Sina      SinaConfig
	Tushare   TushareConfig

	// Crawl behaviour
	Crawl CrawlConfig

	// Messaging
	WecomWebhook string

	// Strategy file (weights, thresholds, fallback lists)
	StrategyFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// DataConfig holds the flat-file data directories.
type DataConfig struct {
	BaseDir       string // everything below lives under here
	RawDir        string // per-symbol series cache + crawl status
	PoolDir       string // dated pool snapshots
	TradeLogDir   string // trade log CSVs, kept forever
	IPODir        string // IPO digests and pushed flags
	RetentionDays int    // cleanup window for everything except the trade log
}

// RedisConfig holds the optional Redis connection.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EastmoneyConfig holds the primary vendor endpoints.
type EastmoneyConfig struct {
	KlineURL string
	SpotURL  string
	IPOURL   string
}

// SinaConfig holds the Sina Finance endpoints.
type SinaConfig struct {
	KlineURL string
	ListURL  string
}

// TushareConfig holds the Tushare API endpoint and token.
type TushareConfig struct {
	APIURL string
	Token  string
}

// CrawlConfig holds batch crawl tuning.
type CrawlConfig struct {
	FetchTimeout    time.Duration // per-vendor HTTP deadline
	SymbolDeadline  time.Duration // per-symbol acquisition deadline
	RequestsPerSec  float64       // pacing between consecutive symbols
	CacheMaxAgeDays int           // age window for cache loads
	MaxRetries      int
	RetryDelay      time.Duration
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	baseDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Port:       getEnv("PORT", "8086"),
		Env:        getEnv("ENV", "development"),
		CronSecret: getEnv("CRON_SECRET", ""),

		Data: DataConfig{
			BaseDir:       baseDir,
			RawDir:        filepath.Join(baseDir, "raw"),
			PoolDir:       filepath.Join(baseDir, "stock_pool"),
			TradeLogDir:   filepath.Join(baseDir, "trade_log"),
			IPODir:        filepath.Join(baseDir, "new_stock"),
			RetentionDays: getEnvAsInt("DATA_RETENTION_DAYS", 365),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Eastmoney: EastmoneyConfig{
			KlineURL: getEnv("EASTMONEY_KLINE_URL", "https://push2his.eastmoney.com/api/qt/stock/kline/get"),
			SpotURL:  getEnv("EASTMONEY_SPOT_URL", "https://push2.eastmoney.com/api/qt/clist/get"),
			IPOURL:   getEnv("EASTMONEY_IPO_URL", "https://data.eastmoney.com/xg/xg/"),
		},

		Sina: SinaConfig{
			KlineURL: getEnv("SINA_KLINE_URL", "https://money.finance.sina.com.cn/quotes_service/api/json_v2.php/CN_MarketData.getKLineData"),
			ListURL:  getEnv("SINA_LIST_URL", "https://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php/Market_Center.getETFList"),
		},

		Tushare: TushareConfig{
			APIURL: getEnv("TUSHARE_API_URL", "https://api.tushare.pro"),
			Token:  getEnv("TUSHARE_TOKEN", ""),
		},

		Crawl: CrawlConfig{
			FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", "15s"),
			SymbolDeadline:  getEnvAsDuration("SYMBOL_DEADLINE", "2m"),
			RequestsPerSec:  getEnvAsFloat("CRAWL_RPS", 1.0),
			CacheMaxAgeDays: getEnvAsInt("CACHE_MAX_AGE_DAYS", 1460),
			MaxRetries:      getEnvAsInt("MAX_RETRIES", 3),
			RetryDelay:      getEnvAsDuration("RETRY_DELAY", "1s"),
		},

		WecomWebhook: getEnv("WECOM_WEBHOOK", ""),
		StrategyFile: getEnv("STRATEGY_FILE", "config/strategy.yaml"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Crawl.RequestsPerSec <= 0 {
		return fmt.Errorf("CRAWL_RPS must be positive")
	}

	if c.Data.RetentionDays <= 0 {
		return fmt.Errorf("DATA_RETENTION_DAYS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
