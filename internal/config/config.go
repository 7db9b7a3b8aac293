package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Port      string
	JWTSecret string

	// Admin auth
	AdminPassword string

	// Optional trade archive
	DatabaseURL   string
	MigrationsDir string

	// Simulation tunables
	BaseStake    float64 // base stake unit
	OddsJitter   float64 // max absolute odds jitter
	ResolveBatch int     // max trades per resolution pass
	MaxTrades    int     // ledger retention cap, 0 = unbounded
	RandSeed     int64   // 0 = time-seeded
	SeedDemoData bool
}

func Load() *Config {
	loadEnvFile(".env")
	return &Config{
		Port:      getEnv("PORT", "4000"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-at-least-32-characters!!"),

		AdminPassword: getEnv("ADMIN_PASSWORD", "letmecook"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		BaseStake:    getEnvFloat("BASE_STAKE", 25),
		OddsJitter:   getEnvFloat("ODDS_JITTER", 0.15),
		ResolveBatch: getEnvInt("RESOLVE_BATCH", 50),
		MaxTrades:    getEnvInt("MAX_TRADES", 5000),
		RandSeed:     int64(getEnvInt("RAND_SEED", 0)),
		SeedDemoData: getEnv("SEED_DEMO", "true") == "true",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
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

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// loadEnvFile applies dotenv-style KEY=VALUE lines without overriding
// variables already set in the environment.
func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}
