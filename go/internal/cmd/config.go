package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/corkboard/go/internal/votes"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Timer struct {
		TickInterval time.Duration `yaml:"tick_interval"`
	} `yaml:"timer"`
	Votes struct {
		Threshold int `yaml:"threshold"`
	} `yaml:"votes"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
	Clustering struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"-"`
	} `yaml:"clustering"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8082"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Timer.TickInterval = time.Second
	cfg.Votes.Threshold = votes.DefaultThreshold
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Votes.Threshold = getEnvAsInt("VOTE_THRESHOLD", config.Votes.Threshold)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.Clustering.BaseURL = getEnv("OPENROUTER_BASE_URL", config.Clustering.BaseURL)
	config.Clustering.Model = getEnv("OPENROUTER_MODEL", config.Clustering.Model)
	config.Clustering.APIKey = os.Getenv("OPENROUTER_API_ACCESS_TOKEN")

	return config, nil
}
