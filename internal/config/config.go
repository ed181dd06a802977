package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the application configuration.
type Config struct {
	ServerPort        int
	AppEnv            string
	LogLevel          string
	LogPretty         bool
	DatabaseDriver    string // "sqlite" or "postgres"
	DatabaseURL       string
	BcryptCost        int
	FrontendBuildPath string
	AllowedOrigins    []string

	TrainAPIKey      string
	TrainAPIBaseURL  string
	FlightAPIKey     string
	FlightAPIBaseURL string
	UpstreamTimeout  time.Duration

	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then builds the configuration from
// environment variables, falling back to defaults.
func Load() (*Config, error) {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	upstreamTimeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "20s"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	return &Config{
		ServerPort:        port,
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnv("LOG_PRETTY", "false") == "true",
		DatabaseDriver:    driver,
		DatabaseURL:       getEnv("DATABASE_URL", "./realtimemaps.db"),
		BcryptCost:        cost,
		FrontendBuildPath: getEnv("FRONTEND_BUILD_PATH", "./frontend/dist"),
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		TrainAPIKey:      os.Getenv("TRAIN_API_KEY"),
		TrainAPIBaseURL:  getEnv("TRAIN_API_BASE_URL", "https://indianrailapi.com/api/v2"),
		FlightAPIKey:     os.Getenv("FLIGHT_API_KEY"),
		FlightAPIBaseURL: getEnv("FLIGHT_API_BASE_URL", "https://fr24api.flightradar24.com"),
		UpstreamTimeout:  upstreamTimeout,

		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
