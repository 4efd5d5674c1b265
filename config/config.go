package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	RZD      RZDConfig      `yaml:"rzd"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Watch    WatchConfig    `yaml:"watch"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

type RZDConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	if d.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	WatchEventsTopic string   `yaml:"watch_events_topic"`
}

type WatchConfig struct {
	DeadlineHours           int `yaml:"deadline_hours"`
	PollIntervalSeconds     int `yaml:"poll_interval_seconds"`
	ProgressIntervalMinutes int `yaml:"progress_interval_minutes"`
	UpstreamRetryMillis     int `yaml:"upstream_retry_millis"`
	SearchTimeoutSeconds    int `yaml:"search_timeout_seconds"`
	MaxResults              int `yaml:"max_results"`
	CityCacheTTLHours       int `yaml:"city_cache_ttl_hours"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RZD.TimeoutSeconds == 0 {
		c.RZD.TimeoutSeconds = 30
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Watch.DeadlineHours == 0 {
		c.Watch.DeadlineHours = 24
	}
	if c.Watch.PollIntervalSeconds == 0 {
		c.Watch.PollIntervalSeconds = 30
	}
	if c.Watch.ProgressIntervalMinutes == 0 {
		c.Watch.ProgressIntervalMinutes = 60
	}
	if c.Watch.UpstreamRetryMillis == 0 {
		c.Watch.UpstreamRetryMillis = 500
	}
	if c.Watch.SearchTimeoutSeconds == 0 {
		c.Watch.SearchTimeoutSeconds = 120
	}
	if c.Watch.MaxResults == 0 {
		c.Watch.MaxResults = 30
	}
	if c.Watch.CityCacheTTLHours == 0 {
		c.Watch.CityCacheTTLHours = 24
	}
}
