package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Gateway struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Dispatch struct {
	BatchSize        int
	Interval         time.Duration
	MaxAttempts      int
	StaleTaskTimeout time.Duration
	InternalCron     bool
}

type Analytics struct {
	Interval      time.Duration
	DaysBack      int
	Limit         int
	CaptureWindow time.Duration
}

type Config struct {
	Port        string
	PostgresURI string
	RedisURI    string
	AutoMigrate bool
	FrontendURL string
	SecretKey   string
	CookieName  string
	CronSecret  string
	Gateway     Gateway
	Dispatch    Dispatch
	Analytics   Analytics
	R2          R2
}

func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "localhost:6379"),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:   getEnv("SECRET_KEY", ""),
		CookieName:  getEnv("COOKIE_NAME", ""),
		CronSecret:  getEnv("CRON_SECRET", ""),
		Gateway: Gateway{
			BaseURL: getEnv("GATEWAY_BASE_URL", "https://api.ayrshare.com/api"),
			APIKey:  getEnv("GATEWAY_API_KEY", ""),
			Timeout: getEnvDuration("GATEWAY_TIMEOUT", 2*time.Minute),
		},
		Dispatch: Dispatch{
			BatchSize:        getEnvInt("DISPATCH_BATCH_SIZE", 10),
			Interval:         getEnvDuration("DISPATCH_INTERVAL", 5*time.Minute),
			MaxAttempts:      getEnvInt("TASK_MAX_ATTEMPTS", 3),
			StaleTaskTimeout: getEnvDuration("STALE_TASK_TIMEOUT", 30*time.Minute),
			InternalCron:     getEnvBool("INTERNAL_CRON_ENABLED", false),
		},
		Analytics: Analytics{
			Interval:      getEnvDuration("ANALYTICS_INTERVAL", 6*time.Hour),
			DaysBack:      getEnvInt("ANALYTICS_DAYS_BACK", 7),
			Limit:         getEnvInt("ANALYTICS_LIMIT", 50),
			CaptureWindow: getEnvDuration("ANALYTICS_CAPTURE_WINDOW", time.Hour),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("5m", "1h30m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
