package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	LogLevel            string
	LogFormat           string
	OfficialRateURL     string
	FallbackRateURL     string
	RateCacheTTLMinutes int
	FixedSellRate       string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	rateTTL, err := strconv.Atoi(getEnv("RATE_CACHE_TTL_MINUTES", "360"))
	if err != nil || rateTTL < 1 {
		rateTTL = 360
	}

	return Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		OfficialRateURL:     os.Getenv("OFFICIAL_RATE_URL"),
		FallbackRateURL:     os.Getenv("FALLBACK_RATE_URL"),
		RateCacheTTLMinutes: rateTTL,
		FixedSellRate:       strings.TrimSpace(os.Getenv("FIXED_SELL_RATE")),
	}
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
