package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                     string
	AllowedOrigin            string
	DatabaseURL              string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	DashboardCacheTTLSeconds int
	AuthSecret               string
	AccessTokenTTLMinutes    int
	Timezone                 string
	StoreGoal                int
	LogLevel                 string
	LogFormat                string
	// AdminBootstrapPassword seeds the first admin account of an empty
	// PostgreSQL user table. Unused by the in-memory repository.
	AdminBootstrapPassword string
}

// Load reads configuration from the process environment, with a .env file in
// the working directory filling in anything not already set.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DASHBOARD_CACHE_TTL_SECONDS", 30)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("TIMEZONE", "Asia/Jakarta")
	v.SetDefault("STORE_GOAL", 96)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	ttl := v.GetInt("DASHBOARD_CACHE_TTL_SECONDS")
	if ttl < 1 {
		ttl = 30
	}
	tokenTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if tokenTTL < 1 {
		tokenTTL = 480
	}
	goal := v.GetInt("STORE_GOAL")
	if goal < 1 {
		goal = 96
	}

	return Config{
		Port:                     v.GetString("PORT"),
		AllowedOrigin:            v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:              v.GetString("DATABASE_URL"),
		RedisAddr:                v.GetString("REDIS_ADDR"),
		RedisPassword:            v.GetString("REDIS_PASSWORD"),
		RedisDB:                  v.GetInt("REDIS_DB"),
		DashboardCacheTTLSeconds: ttl,
		AuthSecret:               strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes:    tokenTTL,
		Timezone:                 v.GetString("TIMEZONE"),
		StoreGoal:                goal,
		LogLevel:                 strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:                strings.ToLower(v.GetString("LOG_FORMAT")),
		AdminBootstrapPassword:   v.GetString("ADMIN_BOOTSTRAP_PASSWORD"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves the configured timezone used for "today" and week bounds.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) DashboardCacheTTL() time.Duration {
	return time.Duration(c.DashboardCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}
