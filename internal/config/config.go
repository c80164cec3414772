package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings.
// Values come from the environment, optionally pre-loaded from a .env file.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        string `mapstructure:"PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DBPath      string `mapstructure:"DB_PATH"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	SeedPath    string `mapstructure:"SEED_PATH"`

	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	Geocoder          string  `mapstructure:"GEOCODER"`
	NeshanAPIKey      string  `mapstructure:"NESHAN_API_KEY"`
	ORSAPIKey         string  `mapstructure:"ORS_API_KEY"`
	GeocodeRatePerSec float64 `mapstructure:"GEOCODE_RATE_PER_SEC"`

	AverageSpeedKmh float64 `mapstructure:"AVERAGE_SPEED_KMH"`
	ClusterRadiusKm float64 `mapstructure:"CLUSTER_RADIUS_KM"`
	CourierID       string  `mapstructure:"COURIER_ID"`
}

var defaults = map[string]any{
	"ENVIRONMENT":          "development",
	"PORT":                 "8080",
	"LOG_LEVEL":            "info",
	"STORE_DRIVER":         "sqlite",
	"DB_PATH":              "data/app.db",
	"DATABASE_URL":         "",
	"SEED_PATH":            "data/seeds/packages.json",
	"REDIS_ADDRESS":        "",
	"REDIS_PASSWORD":       "",
	"GEOCODER":             "neshan",
	"NESHAN_API_KEY":       "",
	"ORS_API_KEY":          "",
	"GEOCODE_RATE_PER_SEC": 5.0,
	"AVERAGE_SPEED_KMH":    30.0,
	"CLUSTER_RADIUS_KM":    2.0,
	"COURIER_ID":           "default",
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.Geocoder = strings.ToLower(strings.TrimSpace(cfg.Geocoder))
	cfg.RedisPassword = trimOptionalQuotes(cfg.RedisPassword)

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "sqlite", "memory":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Geocoder {
	case "neshan", "ors", "fixed":
	default:
		return fmt.Errorf("unknown GEOCODER %q", c.Geocoder)
	}

	if c.AverageSpeedKmh <= 0 {
		return fmt.Errorf("AVERAGE_SPEED_KMH must be positive, got %v", c.AverageSpeedKmh)
	}
	if c.ClusterRadiusKm <= 0 {
		return fmt.Errorf("CLUSTER_RADIUS_KM must be positive, got %v", c.ClusterRadiusKm)
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func trimOptionalQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\"")
	s = strings.TrimSuffix(s, "\"")
	s = strings.TrimPrefix(s, "'")
	s = strings.TrimSuffix(s, "'")
	return s
}
