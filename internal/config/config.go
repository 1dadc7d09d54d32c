// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Places      PlacesConfig
	Aggregation AggregationConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MinConns     int
	MaxLifetime  time.Duration
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	RefreshSubject string
}

// PlacesConfig holds place provider configuration
type PlacesConfig struct {
	APIKey           string
	BaseURL          string
	Timeout          time.Duration
	DetailTimeout    time.Duration
	SearchRadius     int
	Language         string
	Country          string
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// AggregationConfig holds the scheduled refresh configuration
type AggregationConfig struct {
	Region       string
	RefreshHour  int
	MaxPages     int
	PageDelay    time.Duration
	OverpassURL  string
	ActivityBBox [4]float64 // south, west, north, east
}

// RateLimitConfig holds the global request gate configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from the environment. A .env file in the working
// directory is read first when present. port overrides PORT when positive.
func Load(port int) (Config, error) {
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", 5001),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 1),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", ""),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			RefreshSubject: getEnv("NATS_REFRESH_SUBJECT", "restaurants.refreshed"),
		},
		Places: PlacesConfig{
			APIKey:           getEnv("GOOGLE_API_KEY", ""),
			BaseURL:          getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
			Timeout:          getEnvAsDuration("PLACES_TIMEOUT", 10*time.Second),
			DetailTimeout:    getEnvAsDuration("PLACES_DETAIL_TIMEOUT", 5*time.Second),
			SearchRadius:     getEnvAsInt("PLACES_SEARCH_RADIUS", 25000),
			Language:         getEnv("PLACES_LANGUAGE", "de"),
			Country:          getEnv("PLACES_COUNTRY", "ch"),
			BreakerThreshold: uint32(getEnvAsInt("PLACES_BREAKER_THRESHOLD", 5)),
			BreakerTimeout:   getEnvAsDuration("PLACES_BREAKER_TIMEOUT", 30*time.Second),
		},
		Aggregation: AggregationConfig{
			Region:       getEnv("REGION", "Graubünden"),
			RefreshHour:  getEnvAsInt("REFRESH_HOUR", 1),
			MaxPages:     getEnvAsInt("PLACES_MAX_PAGES", 1),
			PageDelay:    getEnvAsDuration("PLACES_PAGE_DELAY", 2*time.Second),
			OverpassURL:  getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			ActivityBBox: getEnvAsBBox("ACTIVITY_BBOX", [4]float64{46.5, 9.0, 47.0, 10.0}),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if port > 0 {
		config.Server.Port = port
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", config.Server.Port)
	}
	if config.Aggregation.RefreshHour < 0 || config.Aggregation.RefreshHour > 23 {
		return fmt.Errorf("REFRESH_HOUR must be between 0 and 23, got %d", config.Aggregation.RefreshHour)
	}
	if config.Aggregation.MaxPages < 1 {
		return fmt.Errorf("PLACES_MAX_PAGES must be at least 1")
	}
	if config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// getEnvAsBBox parses "south,west,north,east"
func getEnvAsBBox(key string, defaultValue [4]float64) [4]float64 {
	parts := getEnvAsSlice(key, nil)
	if len(parts) != 4 {
		return defaultValue
	}
	var box [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return defaultValue
		}
		box[i] = v
	}
	return box
}
