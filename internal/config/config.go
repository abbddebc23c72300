package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret  []byte
	TokenTTL   time.Duration
	BcryptCost int

	LedgerBackend string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	ReaperInterval   time.Duration
	SeedDefaultUsers bool
	CookieSecure     bool
}

func LoadEnvFile(path string) {
	if err := godotenv.Load(path); err != nil {
		log.Printf("notice: %s not loaded: %v. Using system environment variables", path, err)
	}
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "comic-auth"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:  []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:   EnvDurationDefault("TOKEN_TTL", time.Hour),
		BcryptCost: EnvIntDefault("BCRYPT_COST", 0),

		LedgerBackend: strings.ToLower(EnvDefault("LEDGER_BACKEND", "db")),
		RedisAddr:     EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "user_events"),

		ReaperInterval:   EnvDurationDefault("REAPER_INTERVAL", 10*time.Minute),
		SeedDefaultUsers: EnvBoolDefault("SEED_DEFAULT_USERS", true),
		CookieSecure:     EnvBoolDefault("COOKIE_SECURE", true),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go duration strings ("15m", "1h") and falls back
// to def on empty or unparsable values.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
