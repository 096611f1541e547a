// Package config loads service settings from the environment (and an optional
// .env file) with defaults suitable for a local run.
package config

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"waste-route-service/internal/domain"
	"waste-route-service/internal/services"
)

type Config struct {
	Port string `mapstructure:"PORT" validate:"required,numeric"`

	DBDriver    string `mapstructure:"DB_DRIVER" validate:"oneof=sqlite pgx"`
	DBPath      string `mapstructure:"DB_PATH" validate:"required_if=DBDriver sqlite"`
	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required_if=DBDriver pgx"`

	LocationsPath string `mapstructure:"LOCATIONS_PATH" validate:"required"`
	SeedPath      string `mapstructure:"SEED_PATH"`

	DepotLat float64 `mapstructure:"DEPOT_LAT" validate:"latitude"`
	DepotLng float64 `mapstructure:"DEPOT_LNG" validate:"longitude"`
	TimeZone string  `mapstructure:"TIMEZONE" validate:"required,timezone"`

	FleetCap            int     `mapstructure:"FLEET_CAP" validate:"gte=1"`
	MaxCraneVehicles    int     `mapstructure:"MAX_CRANE_VEHICLES" validate:"gte=0"`
	CraneJobsPerVehicle int     `mapstructure:"CRANE_JOBS_PER_VEHICLE" validate:"gte=1"`
	CraneCapacityKg     int     `mapstructure:"CRANE_CAPACITY_KG" validate:"gt=0"`
	StandardCapacityKg  int     `mapstructure:"STANDARD_CAPACITY_KG" validate:"gt=0"`
	CapacityLimit       float64 `mapstructure:"CAPACITY_LIMIT" validate:"gt=0,lte=1"`
	MaxTurns            int     `mapstructure:"MAX_TURNS" validate:"gte=1"`

	SyntheticFallback bool  `mapstructure:"SYNTHETIC_FALLBACK"`
	FallbackSeed      int64 `mapstructure:"FALLBACK_SEED"`

	RedisURL string        `mapstructure:"REDIS_URL"`
	LockTTL  time.Duration `mapstructure:"LOCK_TTL" validate:"gt=0"`

	LogJSON  bool   `mapstructure:"LOG_JSON"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Requests per minute accepted by the generate endpoint; 0 disables the limit.
	GenerateRateLimit int `mapstructure:"GENERATE_RATE_LIMIT" validate:"gte=0"`
}

var defaults = map[string]any{
	"PORT":                   "8080",
	"DB_DRIVER":              "sqlite",
	"DB_PATH":                "data/app.db",
	"DATABASE_URL":           "",
	"LOCATIONS_PATH":         "data/locations.csv",
	"SEED_PATH":              "data/seeds/drivers.json",
	"DEPOT_LAT":              domain.DefaultDepot.Lat,
	"DEPOT_LNG":              domain.DefaultDepot.Lng,
	"TIMEZONE":               "Europe/Istanbul",
	"FLEET_CAP":              15,
	"MAX_CRANE_VEHICLES":     3,
	"CRANE_JOBS_PER_VEHICLE": 10,
	"CRANE_CAPACITY_KG":      12000,
	"STANDARD_CAPACITY_KG":   8000,
	"CAPACITY_LIMIT":         0.95,
	"MAX_TURNS":              1000,
	"SYNTHETIC_FALLBACK":     true,
	"FALLBACK_SEED":          0,
	"REDIS_URL":              "",
	"LOCK_TTL":               "5m",
	"LOG_JSON":               false,
	"LOG_LEVEL":              "info",
	"GENERATE_RATE_LIMIT":    6,
}

// Load reads .env (if present), an optional CONFIG_FILE and the process
// environment. Environment variables win over the file.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "load config: read %q", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}

	return &cfg, nil
}

// Location resolves the configured service time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.TimeZone)
	}
	return loc, nil
}

func (c *Config) Depot() domain.Coordinates {
	return domain.NewCoordinates(c.DepotLat, c.DepotLng)
}

func (c *Config) FleetPolicy() services.FleetPolicy {
	return services.FleetPolicy{
		FleetCap:            c.FleetCap,
		MaxCraneVehicles:    c.MaxCraneVehicles,
		CraneJobsPerVehicle: c.CraneJobsPerVehicle,
		CraneCapacityKg:     c.CraneCapacityKg,
		StandardCapacityKg:  c.StandardCapacityKg,
	}
}

func (c *Config) AssignPolicy() services.AssignPolicy {
	return services.AssignPolicy{CapacityLimit: c.CapacityLimit, MaxTurns: c.MaxTurns}
}

// GeneratorOptions assembles the route generator settings.
func (c *Config) GeneratorOptions() (services.GeneratorOptions, error) {
	tz, err := c.Location()
	if err != nil {
		return services.GeneratorOptions{}, err
	}

	opts := services.DefaultGeneratorOptions()
	opts.Depot = c.Depot()
	opts.TimeZone = tz
	opts.Fleet = c.FleetPolicy()
	opts.Assign = c.AssignPolicy()
	return opts, nil
}
