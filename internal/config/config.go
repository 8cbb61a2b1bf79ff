package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Votes    VoteConfig
	Kafka    KafkaConfig
	LogLevel string
}

type ServerConfig struct {
	Port         string
	GinMode      string
	CORSOrigin   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SubCacheTTL  time.Duration
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	SessionSecret string
	JWTSecret     string
}

type VoteConfig struct {
	LedgerBackend     string // sql or redis
	Timeout           time.Duration
	BatchSize         int
	RankFlushInterval time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ORIGIN", "")
	v.SetDefault("READ_TIMEOUT", 15*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SUB_CACHE_TTL", time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=readit port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_SECRET", "secret_key_change_me")
	v.SetDefault("JWT_SECRET", "jwt_secret_change_me")
	v.SetDefault("LEDGER_BACKEND", "sql")
	v.SetDefault("VOTE_TIMEOUT", 3*time.Second)
	v.SetDefault("VOTE_BATCH_SIZE", 500)
	v.SetDefault("RANK_FLUSH_INTERVAL", 500*time.Millisecond)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_VOTE_TOPIC", "votes")
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			GinMode:      v.GetString("GIN_MODE"),
			CORSOrigin:   v.GetString("CORS_ORIGIN"),
			ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
			SubCacheTTL:  v.GetDuration("SUB_CACHE_TTL"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			URL:          v.GetString("DATABASE_URL"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		Auth: AuthConfig{
			SessionSecret: v.GetString("SESSION_SECRET"),
			JWTSecret:     v.GetString("JWT_SECRET"),
		},
		Votes: VoteConfig{
			LedgerBackend:     strings.ToLower(v.GetString("LEDGER_BACKEND")),
			Timeout:           v.GetDuration("VOTE_TIMEOUT"),
			BatchSize:         v.GetInt("VOTE_BATCH_SIZE"),
			RankFlushInterval: v.GetDuration("RANK_FLUSH_INTERVAL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_VOTE_TOPIC"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
