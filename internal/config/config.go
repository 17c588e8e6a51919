package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// Values are read from app.env in the config path and can be overridden by environment variables.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`

	StoreDriver      string `mapstructure:"STORE_DRIVER"`
	DBSource         string `mapstructure:"DB_SOURCE"`
	DynamoDBRegion   string `mapstructure:"DYNAMODB_REGION"`
	DynamoDBEndpoint string `mapstructure:"DYNAMODB_ENDPOINT"`
	PlacesTable      string `mapstructure:"PLACES_TABLE"`
	GeohashIndex     string `mapstructure:"GEOHASH_INDEX"`

	CacheBackend  string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	RateLimitRPS      float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int     `mapstructure:"RATE_LIMIT_BURST"`
	SearchMaxRadiusKm float64 `mapstructure:"SEARCH_MAX_RADIUS_KM"`
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var keys = []string{
	"SERVER_ADDRESS", "LOG_LEVEL", "LOG_FORMAT",
	"STORE_DRIVER", "DB_SOURCE", "DYNAMODB_REGION", "DYNAMODB_ENDPOINT", "PLACES_TABLE", "GEOHASH_INDEX",
	"CACHE_BACKEND", "CACHE_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "SEARCH_MAX_RADIUS_KM",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("PLACES_TABLE", "places")
	v.SetDefault("GEOHASH_INDEX", "geohash-index")
	v.SetDefault("DYNAMODB_REGION", "us-east-1")
	v.SetDefault("CACHE_BACKEND", CacheMemory)
	v.SetDefault("CACHE_TTL", 60*time.Second)
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_RPS", 50.0)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("SEARCH_MAX_RADIUS_KM", 50.0)
}

// LoadConfig reads configuration from app.env under path, a .env file in the
// working directory (if any) and the environment, in increasing priority.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("config: failed to load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// AutomaticEnv only applies to keys viper already knows about
	for _, k := range keys {
		if err = v.BindEnv(k); err != nil {
			return config, fmt.Errorf("config: failed to bind %s: %w", k, err)
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to decode config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate rejects unknown drivers and missing connection settings.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreDynamoDB:
	case StorePostgres:
		if c.DBSource == "" {
			return fmt.Errorf("config: DB_SOURCE is required for the %s store", StorePostgres)
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("config: CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.SearchMaxRadiusKm <= 0 {
		return fmt.Errorf("config: SEARCH_MAX_RADIUS_KM must be positive, got %v", c.SearchMaxRadiusKm)
	}
	return nil
}
