package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// defaultJWTSecret is the placeholder shipped in config.yml.
const defaultJWTSecret = "change-me"

var ErrInsecureJWTSecret = errors.New("auth.jwt_secret must be set outside development mode")

type Config struct {
	Mode         string `mapstructure:"mode"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"sslmode"`
			MAXCONWAITINGTIME int    `mapstructure:"maxconwaitingtime"`
		} `mapstructure:"postgres"`
		Redis struct {
			Enabled  bool   `mapstructure:"enabled"`
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort     string        `mapstructure:"httpport"`
		Timeout      time.Duration `mapstructure:"httptimeout"`
		AdminTimeout time.Duration `mapstructure:"admintimeout"`
	} `mapstructure:"server"`
	Boundaries struct {
		URL        string        `mapstructure:"url"`
		Timeout    time.Duration `mapstructure:"timeout"`
		RetryAfter time.Duration `mapstructure:"retry_after"`
	} `mapstructure:"boundaries"`
	Geocoding struct {
		BaseURL           string        `mapstructure:"base_url"`
		UserAgent         string        `mapstructure:"user_agent"`
		Timeout           time.Duration `mapstructure:"timeout"`
		VariantDelay      time.Duration `mapstructure:"variant_delay"`
		RequestsPerSecond float64       `mapstructure:"requests_per_second"`
		CacheTTL          time.Duration `mapstructure:"cache_ttl"`
		BreakerFailures   uint32        `mapstructure:"breaker_failures"`
		BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
	} `mapstructure:"geocoding"`
	Migration struct {
		GeocodeDelay      time.Duration `mapstructure:"geocode_delay"`
		NeighborhoodDelay time.Duration `mapstructure:"neighborhood_delay"`
	} `mapstructure:"migration"`
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// GEOCODING_USER_AGENT overrides geocoding.user_agent, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate rejects an empty or placeholder JWT secret outside development mode.
func (c Config) Validate() error {
	if c.Mode == "development" {
		return nil
	}
	secret := strings.TrimSpace(c.Auth.JWTSecret)
	if secret == "" || secret == defaultJWTSecret {
		return fmt.Errorf("mode %q: %w", c.Mode, ErrInsecureJWTSecret)
	}
	return nil
}
