package config

import (
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig holds configuration of the client-side pipeline
type ClientConfig struct {
	BackendURL      string
	RequestTimeout  time.Duration
	DataPath        string
	Region          string
	PhotoAPIKey     string
	NearbyRadius    int
	CacheTTL        time.Duration
	MinSpacing      time.Duration
	Debounce        time.Duration
	RetryAttempts   int
	RetryBaseDelay  time.Duration
	RetryMultiplier float64
	UseNearby       bool
	Log             LogConfig
}

// LoadClient loads client configuration from the environment
func LoadClient() ClientConfig {
	_ = godotenv.Load()

	return ClientConfig{
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:5000"),
		RequestTimeout:  getEnvAsDuration("BACKEND_TIMEOUT", 20*time.Second),
		DataPath:        getEnv("MINIREGION_DATA", "miniregion.db"),
		Region:          getEnv("CLIENT_REGION", "Switzerland"),
		PhotoAPIKey:     getEnv("GOOGLE_PHOTO_KEY", ""),
		NearbyRadius:    getEnvAsInt("NEARBY_RADIUS", 50000),
		CacheTTL:        getEnvAsDuration("CACHE_TTL", 24*time.Hour),
		MinSpacing:      getEnvAsDuration("FETCH_MIN_SPACING", 1*time.Second),
		Debounce:        getEnvAsDuration("SEARCH_DEBOUNCE", 1*time.Second),
		RetryAttempts:   getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryBaseDelay:  getEnvAsDuration("RETRY_BASE_DELAY", 1*time.Second),
		RetryMultiplier: getEnvAsFloat("RETRY_MULTIPLIER", 2),
		UseNearby:       getEnvAsBool("USE_NEARBY", true),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}
