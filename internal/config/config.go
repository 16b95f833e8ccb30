package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Basket   BasketConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ResultTTLSeconds int
}

// ForecastConfig holds the fitting knobs for the forecast engine.
type ForecastConfig struct {
	FitTimeout      time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	BatchWorkers    int
	LookbackDays    int
	MAPEAlertThresh float64
}

// BasketConfig holds default thresholds for market-basket mining.
type BasketConfig struct {
	MinSupport     float64
	MinConfidence  float64
	MaxItemsetSize int
}

// ArchiveConfig configures the optional S3-compatible artifact store.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "sellsight")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RESULT_TTL_SECONDS", 300)
		viper.SetDefault("FORECAST_FIT_TIMEOUT_SECONDS", 30)
		viper.SetDefault("FORECAST_RETRY_ATTEMPTS", 3)
		viper.SetDefault("FORECAST_RETRY_BACKOFF_SECONDS", 2)
		viper.SetDefault("FORECAST_BATCH_WORKERS", 4)
		viper.SetDefault("FORECAST_LOOKBACK_DAYS", 365)
		viper.SetDefault("FORECAST_MAPE_ALERT_THRESHOLD", 20.0)
		viper.SetDefault("BASKET_MIN_SUPPORT", 0.01)
		viper.SetDefault("BASKET_MIN_CONFIDENCE", 0.5)
		viper.SetDefault("BASKET_MAX_ITEMSET_SIZE", 4)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "")
		viper.SetDefault("ARCHIVE_REGION", "us-east-1")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ResultTTLSeconds: viper.GetInt("CACHE_RESULT_TTL_SECONDS"),
			},
			Forecast: ForecastConfig{
				FitTimeout:      time.Duration(viper.GetInt("FORECAST_FIT_TIMEOUT_SECONDS")) * time.Second,
				RetryAttempts:   viper.GetInt("FORECAST_RETRY_ATTEMPTS"),
				RetryBackoff:    time.Duration(viper.GetInt("FORECAST_RETRY_BACKOFF_SECONDS")) * time.Second,
				BatchWorkers:    viper.GetInt("FORECAST_BATCH_WORKERS"),
				LookbackDays:    viper.GetInt("FORECAST_LOOKBACK_DAYS"),
				MAPEAlertThresh: viper.GetFloat64("FORECAST_MAPE_ALERT_THRESHOLD"),
			},
			Basket: BasketConfig{
				MinSupport:     viper.GetFloat64("BASKET_MIN_SUPPORT"),
				MinConfidence:  viper.GetFloat64("BASKET_MIN_CONFIDENCE"),
				MaxItemsetSize: viper.GetInt("BASKET_MAX_ITEMSET_SIZE"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				Region:    viper.GetString("ARCHIVE_REGION"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}
	})

	return instance
}
