// Package config provides centralized default values for LeagueDesk
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			return val
		}
	}
	return defaultValue
}

func init() {
	loadEnvFile()
}

var (
	// HTTP server
	Port               = getEnvString("PORT", "8080")
	ServerReadTimeout  = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout  = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Primary data store (sqlite3 or libsql)
	DBDriver                 = getEnvString("DB_DRIVER", "sqlite3")
	DBPath                   = getEnvString("DB_PATH", "leaguedesk.db")
	DBMaxOpenConns           = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns           = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThresholdMs     = getEnvInt("SLOW_QUERY_THRESHOLD_MS", 50)

	// Cache store
	RedisAddr            = getEnvString("REDIS_ADDR", "localhost:6379")
	RedisPassword        = getEnvString("REDIS_PASSWORD", "")
	RedisDB              = getEnvInt("REDIS_DB", 0)
	CacheKeyPrefix       = getEnvString("CACHE_KEY_PREFIX", "leaguedesk")
	CacheOpTimeout       = getEnvDuration("CACHE_OP_TIMEOUT", 250*time.Millisecond)
	CacheDegradedLatency = getEnvDuration("CACHE_DEGRADED_LATENCY", 50*time.Millisecond)

	// Per-query-type TTLs
	ClubTTL      = getEnvDuration("CACHE_TTL_CLUB", 10*time.Minute)
	PlayerTTL    = getEnvDuration("CACHE_TTL_PLAYER", 10*time.Minute)
	FixtureTTL   = getEnvDuration("CACHE_TTL_FIXTURE", 5*time.Minute)
	StandingsTTL = getEnvDuration("CACHE_TTL_STANDINGS", 60*time.Second)
	ListTTL      = getEnvDuration("CACHE_TTL_LIST", 5*time.Minute)

	// Cache warming
	WarmingEnabled  = getEnvBool("CACHE_WARMING_ENABLED", true)
	WarmingInterval = getEnvDuration("CACHE_WARMING_INTERVAL", 10*time.Minute)

	// Performance monitor
	MonitorInterval      = getEnvDuration("MONITOR_INTERVAL", 5*time.Second)
	MonitorWindowSize    = getEnvInt("MONITOR_WINDOW_SIZE", 512)
	MonitorMaxSnapshots  = getEnvInt("MONITOR_MAX_SNAPSHOTS", 100)
	MonitorTrendWindow   = getEnvInt("MONITOR_TREND_WINDOW", 5)
	MonitorProbeTimeout  = getEnvDuration("MONITOR_PROBE_TIMEOUT", 5*time.Second)
	SlowMeanThresholdMs  = getEnvFloat("SLOW_MEAN_THRESHOLD_MS", 250)
	LowHitRateThreshold  = getEnvFloat("LOW_HIT_RATE_THRESHOLD", 0.70)
	HighErrorRateMaximum = getEnvFloat("HIGH_ERROR_RATE_THRESHOLD", 0.05)

	// Alert engine
	AlertTickInterval  = getEnvDuration("ALERT_TICK_INTERVAL", 10*time.Second)
	AlertCooldown      = getEnvDuration("ALERT_COOLDOWN", 2*time.Minute)
	AlertMaxRetries    = getEnvInt("ALERT_MAX_RETRIES", 3)
	AlertRetryBackoff  = getEnvDuration("ALERT_RETRY_BACKOFF", 30*time.Second)
	AlertHistoryLimit  = getEnvInt("ALERT_HISTORY_LIMIT", 500)
	DispatchTimeout    = getEnvDuration("DISPATCH_TIMEOUT", 10*time.Second)
	WebhookEndpoint    = getEnvString("ALERT_WEBHOOK_URL", "")
	ChatWebhookURL     = getEnvString("ALERT_CHAT_WEBHOOK_URL", "")
	AlertEmailTo       = getEnvString("ALERT_EMAIL_TO", "")
	AlertEmailFrom     = getEnvString("ALERT_EMAIL_FROM", "alerts@leaguedesk.io")
	AlertEmailFromName = getEnvString("ALERT_EMAIL_FROM_NAME", "LeagueDesk Alerts")
	ResendAPIKey       = getEnvString("RESEND_API_KEY", "")

	// SysOp dashboard
	SysopPassword          = getEnvString("SYSOP_PASSWORD", "")
	JWTSecret              = getEnvString("JWT_SECRET", "")
	SysopBroadcastInterval = getEnvDuration("SYSOP_BROADCAST_INTERVAL", 5*time.Second)

	// Logging
	LogDirectory = getEnvString("LOG_DIR", "logs")
	LogToFile    = getEnvBool("LOG_TO_FILE", true)
	LogVerbose   = getEnvBool("LOG_VERBOSE", false)
)
