// Package config reads process configuration from the environment.
// main loads a .env file (godotenv) before calling Load, so every value here
// can come from either source. Unset or unparsable values fall back to the
// defaults below.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool

	// Persistence
	DBDriver      string // "sqlite" | "postgres"
	DBPath        string
	DatabaseURL   string
	MigrationsDir string

	// HTTP / auth
	ClientOrigin   string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	Production     bool

	// Words
	WordsDir    string
	WordSalt    string
	DefaultLang string

	// Match engine
	GracePeriod     time.Duration
	RematchTimeout  time.Duration
	RoomIdleTimeout time.Duration
	SweepInterval   time.Duration
	EnforceTurns    bool
	StrictWords     bool
	MaxGuesses      int
}

// Load reads every setting from the environment.
func Load() Config {
	return Config{
		Port:      getEnv("PORT", "5175"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: envBool("LOG_PRETTY", false),

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:        getEnv("DB_PATH", "./data/maratona.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "sql"),

		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: envInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "maratona_token"),
		Production:     os.Getenv("NODE_ENV") == "production",

		WordsDir:    os.Getenv("WORDS_DIR"),
		WordSalt:    os.Getenv("WORD_SALT"),
		DefaultLang: getEnv("DEFAULT_LANG", "it"),

		GracePeriod:     envDuration("GRACE_PERIOD", 45*time.Second),
		RematchTimeout:  envDuration("REMATCH_TIMEOUT", 60*time.Second),
		RoomIdleTimeout: envDuration("ROOM_IDLE_TIMEOUT", 30*time.Minute),
		SweepInterval:   envDuration("SWEEP_INTERVAL", time.Minute),
		EnforceTurns:    envBool("ENFORCE_TURNS", false),
		StrictWords:     envBool("STRICT_WORDS", false),
		MaxGuesses:      envInt("MAX_GUESSES", 0),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// envDuration accepts Go durations ("45s") or plain seconds ("45").
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
