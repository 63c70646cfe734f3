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
	Port            string
	DatabaseURL     string
	JWTSecret       string
	AllowOrigins    []string
	LogstashTCPAddr string
	SessionTTL      time.Duration

	LocalStorePath string

	LikesSnapshotMaxBytes int
	LikesUnlikeScope      string
	LikesCountMode        string
	LikesRemoteTimeout    time.Duration

	DeckSwipeThreshold    float64
	DeckDirectionDeadzone float64
	DeckTapSlop           float64
	DeckTiltWidth         float64

	CatalogSource string
	CatalogFile   string

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOBucketPackages  string
	MinIOPublicURL       string
	PackageImageMaxBytes int64
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		JWTSecret:       must("JWT_SECRET"),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		SessionTTL:      getDuration("SESSION_TTL", 7*24*time.Hour),

		LocalStorePath: getenv("LOCAL_STORE_PATH", ""),

		LikesSnapshotMaxBytes: getInt("LIKES_SNAPSHOT_MAX_BYTES", 10000),
		LikesUnlikeScope:      strings.ToLower(getenv("LIKES_UNLIKE_SCOPE", "local")),
		LikesCountMode:        strings.ToLower(getenv("LIKES_COUNT_MODE", "max")),
		LikesRemoteTimeout:    getDuration("LIKES_REMOTE_TIMEOUT", 5*time.Second),

		DeckSwipeThreshold:    getFloat("DECK_SWIPE_THRESHOLD", 120),
		DeckDirectionDeadzone: getFloat("DECK_DIRECTION_DEADZONE", 25),
		DeckTapSlop:           getFloat("DECK_TAP_SLOP", 10),
		DeckTiltWidth:         getFloat("DECK_TILT_WIDTH", 390),

		CatalogSource: strings.ToLower(getenv("CATALOG_SOURCE", "static")),
		CatalogFile:   getenv("CATALOG_FILE", ""),

		MinIOEndpoint:        getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketPackages:  getenv("MINIO_BUCKET_PACKAGES", "travelswipe-packages"),
		MinIOPublicURL:       getenv("MINIO_PUBLIC_URL", ""),
		PackageImageMaxBytes: int64(getInt("PACKAGE_IMAGE_MAX_BYTES", 5*1024*1024)),
	}
}

// MinIOEnabled reports whether package image storage is configured.
func (c Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getInt(k string, d int) int {
	if v, err := strconv.Atoi(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

func getFloat(k string, d float64) float64 {
	if v, err := strconv.ParseFloat(getenv(k, ""), 64); err == nil && v > 0 {
		return v
	}
	return d
}

func getDuration(k string, d time.Duration) time.Duration {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s %q, using %s", k, raw, d)
		return d
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
