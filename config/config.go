package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
		// GenerateRateLimit is plan generations per client IP per minute.
		GenerateRateLimit int `mapstructure:"generateRateLimit"`
	} `mapstructure:"server"`
	Planner struct {
		ClusterRadiusKm    float64 `mapstructure:"clusterRadiusKm"`
		HotelRadiusKm      float64 `mapstructure:"hotelRadiusKm"`
		WeatherConcurrency int     `mapstructure:"weatherConcurrency"`
	} `mapstructure:"planner"`
	Rates struct {
		BaseURL        string        `mapstructure:"baseURL"`
		Timeout        time.Duration `mapstructure:"timeout"`
		TTL            time.Duration `mapstructure:"ttl"`
		FailureBackoff time.Duration `mapstructure:"failureBackoff"`
	} `mapstructure:"rates"`
	Weather struct {
		ForecastURL         string        `mapstructure:"forecastURL"`
		ArchiveURL          string        `mapstructure:"archiveURL"`
		Timeout             time.Duration `mapstructure:"timeout"`
		TTL                 time.Duration `mapstructure:"ttl"`
		FailureBackoff      time.Duration `mapstructure:"failureBackoff"`
		ForecastHorizonDays int           `mapstructure:"forecastHorizonDays"`
	} `mapstructure:"weather"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// REPOSITORIES_POSTGRES_HOST or POSTGRES_HOST override repositories.postgres.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func bindEnv(v *viper.Viper) {
	for key, env := range map[string]string{
		"repositories.postgres.host":     "POSTGRES_HOST",
		"repositories.postgres.port":     "POSTGRES_PORT",
		"repositories.postgres.username": "POSTGRES_USER",
		"repositories.postgres.password": "POSTGRES_PASSWORD",
		"repositories.postgres.db":       "POSTGRES_DB",
		"repositories.redis.addr":        "REDIS_ADDR",
		"repositories.redis.password":    "REDIS_PASSWORD",
		"server.HTTPPort":                "HTTP_PORT",
	} {
		_ = v.BindEnv(key, env)
	}
}
