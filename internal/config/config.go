package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr string
	LogLevel string

	// Database
	DatabaseURL string

	// S3/Storage
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
	S3PublicURL string

	// MiniMax music generation API
	MiniMaxAPIKey   string
	MiniMaxEndpoint string // base URL, e.g. https://api.minimax.io
	MiniMaxModel    string // music model, e.g. music-2.0

	// Grok (x.ai) chat completions — lyrics, prompt enhancement, cover-art concepts
	GrokAPIKey   string
	GrokEndpoint string // OpenAI-compatible base URL, e.g. https://api.x.ai/v1
	GrokModel    string

	// Kafka (optional; empty brokers disables event publishing)
	KafkaBrokers     []string
	KafkaTopicEvents string

	// Default audio settings, applied server-side when a request omits audio_setting.
	// This is the single canonical source of defaults; clients never fill them in.
	DefaultSampleRate int
	DefaultBitrate    int
	DefaultFormat     string

	// Timeouts
	GenerationTimeout time.Duration // ceiling on the music gateway call (the long pole)
	SideStepTimeout   time.Duration // identity lookup, relay fetch/upload, record insert
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		S3Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "music-files"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3UseSSL:    getEnvBool("S3_USE_SSL", false),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		MiniMaxAPIKey:   getEnv("MINIMAX_API_KEY", ""),
		MiniMaxEndpoint: getEnv("MINIMAX_ENDPOINT", "https://api.minimax.io"),
		MiniMaxModel:    getEnv("MINIMAX_MODEL", "music-2.0"),

		GrokAPIKey:   getEnv("GROK_API_KEY", ""),
		GrokEndpoint: getEnv("GROK_ENDPOINT", "https://api.x.ai/v1"),
		GrokModel:    getEnv("GROK_MODEL", "grok-2-latest"),

		KafkaBrokers:     getEnvList("KAFKA_BROKERS", nil),
		KafkaTopicEvents: getEnv("KAFKA_TOPIC_EVENTS", "remi.generations.v1"),

		DefaultSampleRate: getEnvInt("DEFAULT_SAMPLE_RATE", 44100),
		DefaultBitrate:    getEnvInt("DEFAULT_BITRATE", 256000),
		DefaultFormat:     getEnv("DEFAULT_FORMAT", "mp3"),

		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 120*time.Second),
		SideStepTimeout:   getEnvDuration("SIDE_STEP_TIMEOUT", 15*time.Second),
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
