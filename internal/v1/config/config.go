package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds validated environment configuration
type Config struct {
	// Listening port (defaults to 9001)
	Port string

	// Room sizing
	MaxPlayersPerRoom int
	MinRooms          int

	// Ticks per second for the per-room broadcast loop
	TickRate int

	// Optional variables with defaults
	GoEnv           string
	LogLevel        string
	DevelopmentMode bool

	// Rate Limits
	RateLimitWsIp string
	RateLimitHTTP string

	// Tracing
	OtelEnabled  bool
	OtelEndpoint string
}

// Defaults for everything the environment leaves unset.
const (
	DefaultPort              = "9001"
	DefaultMaxPlayersPerRoom = 100
	DefaultMinRooms          = 1
	DefaultTickRate          = 20
)

// ValidateEnv validates all environment variables and returns a Config
// object. Returns an error describing every invalid variable at once.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errors []string

	// Optional: PORT (defaults to 9001, must be a valid port when set)
	cfg.Port = getEnvOrDefault("PORT", DefaultPort)
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
	}

	// Optional: MAX_PLAYERS_PER_ROOM (defaults to 100)
	var err error
	cfg.MaxPlayersPerRoom, err = getEnvIntOrDefault("MAX_PLAYERS_PER_ROOM", DefaultMaxPlayersPerRoom)
	if err != nil {
		errors = append(errors, err.Error())
	} else if cfg.MaxPlayersPerRoom < 1 || cfg.MaxPlayersPerRoom > 10000 {
		errors = append(errors, fmt.Sprintf("MAX_PLAYERS_PER_ROOM must be between 1 and 10000 (got %d)", cfg.MaxPlayersPerRoom))
	}

	// Optional: MIN_ROOMS (defaults to 1; the floor of rooms kept alive)
	cfg.MinRooms, err = getEnvIntOrDefault("MIN_ROOMS", DefaultMinRooms)
	if err != nil {
		errors = append(errors, err.Error())
	} else if cfg.MinRooms < 0 || cfg.MinRooms > 1000 {
		errors = append(errors, fmt.Sprintf("MIN_ROOMS must be between 0 and 1000 (got %d)", cfg.MinRooms))
	}

	// Optional: TICK_RATE (defaults to 20 ticks per second)
	cfg.TickRate, err = getEnvIntOrDefault("TICK_RATE", DefaultTickRate)
	if err != nil {
		errors = append(errors, err.Error())
	} else if cfg.TickRate < 1 || cfg.TickRate > 120 {
		errors = append(errors, fmt.Sprintf("TICK_RATE must be between 1 and 120 (got %d)", cfg.TickRate))
	}

	// Optional: GO_ENV (defaults to "production")
	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")

	// Optional: LOG_LEVEL (defaults to "info")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.DevelopmentMode = os.Getenv("DEVELOPMENT_MODE") == "true"

	// Rate Limits (Defaults: M = Minute, H = Hour)
	cfg.RateLimitWsIp = getEnvOrDefault("RATE_LIMIT_WS_IP", "30-M")
	cfg.RateLimitHTTP = getEnvOrDefault("RATE_LIMIT_HTTP", "300-M")

	// Conditional: OTEL_EXPORTER_OTLP_ENDPOINT (used when OTEL_ENABLED=true)
	cfg.OtelEnabled = os.Getenv("OTEL_ENABLED") == "true"
	if cfg.OtelEnabled {
		cfg.OtelEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		if cfg.OtelEndpoint == "" {
			cfg.OtelEndpoint = "localhost:4317"
			slog.Warn("OTEL_EXPORTER_OTLP_ENDPOINT not set, using default", "endpoint", cfg.OtelEndpoint)
		} else if !isValidHostPort(cfg.OtelEndpoint) {
			errors = append(errors, fmt.Sprintf("OTEL_EXPORTER_OTLP_ENDPOINT must be in format 'host:port' (got '%s')", cfg.OtelEndpoint))
		}
	}

	// If there are validation errors, return them
	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	logValidatedConfig(cfg)

	return cfg, nil
}

// isValidHostPort checks if a string is in the format "host:port"
func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return false
	}

	// Validate port is a number
	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return false
	}

	// Validate host is not empty
	if parts[0] == "" {
		return false
	}

	return true
}

// logValidatedConfig logs the validated configuration. This runs before the
// structured logger is initialised, hence slog.
func logValidatedConfig(cfg *Config) {
	slog.Info("✅ Environment configuration validated successfully")
	slog.Info("Configuration",
		"port", cfg.Port,
		"max_players_per_room", cfg.MaxPlayersPerRoom,
		"min_rooms", cfg.MinRooms,
		"tick_rate", cfg.TickRate,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"development_mode", cfg.DevelopmentMode,
		"rate_limit_ws_ip", cfg.RateLimitWsIp,
		"otel_enabled", cfg.OtelEnabled,
	)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault parses an integer environment variable, returning the
// default when unset.
func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got '%s')", key, value)
	}
	return n, nil
}
