package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	JWTSecret string
	Output    string
	Timeout   time.Duration
}

// DefaultConfig returns a Config with values from the environment
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("PLAYERDATA_SERVER", "http://localhost:3100"),
		Token:     os.Getenv("PLAYERDATA_TOKEN"),
		JWTSecret: os.Getenv("PLAYERDATA_JWT_SECRET"),
		Output:    "text",
		Timeout:   30 * time.Second,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
