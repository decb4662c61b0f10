package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the engine.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Engine   EngineConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds connection values for the ticketing database the
// engine reads from.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the MTTR cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// EngineConfig carries SLA evaluation parameters.
type EngineConfig struct {
	// TickIntervalSeconds drives the live-countdown retick within a session.
	TickIntervalSeconds int
	// MTTRCacheTTLMinutes bounds how long a cached comparison population is
	// reused; the population changes slowly relative to the countdown.
	MTTRCacheTTLMinutes int
	// MTTRSampleLimit caps the number of resolved tickets fetched per scope.
	MTTRSampleLimit int
	// PartnerFieldID is the ticket custom field carrying the partner
	// selector; zero disables field-based partner detection.
	PartnerFieldID int64
	// Keyword overrides, comma separated, checked ahead of built-in patterns.
	ConnectXKeywords  []string
	ATTKeywords       []string
	AirvetKeywords    []string
	EscalatedKeywords []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sla-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			TickIntervalSeconds: getEnvAsInt("SLA_TICK_INTERVAL_SECONDS", 1),
			MTTRCacheTTLMinutes: getEnvAsInt("SLA_MTTR_CACHE_TTL_MINUTES", 15),
			MTTRSampleLimit:     getEnvAsInt("SLA_MTTR_SAMPLE_LIMIT", 100),
			PartnerFieldID:      getEnvAsInt64("SLA_PARTNER_FIELD_ID", 0),
			ConnectXKeywords:    getEnvAsList("SLA_CONNECTX_KEYWORDS"),
			ATTKeywords:         getEnvAsList("SLA_ATT_KEYWORDS"),
			AirvetKeywords:      getEnvAsList("SLA_AIRVET_KEYWORDS"),
			EscalatedKeywords:   getEnvAsList("SLA_ESCALATED_KEYWORDS"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TickInterval returns the live retick period.
func (e EngineConfig) TickInterval() time.Duration {
	if e.TickIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(e.TickIntervalSeconds) * time.Second
}

// MTTRCacheTTL returns the cache lifetime for MTTR summaries.
func (e EngineConfig) MTTRCacheTTL() time.Duration {
	if e.MTTRCacheTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(e.MTTRCacheTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
