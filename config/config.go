package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP          HTTPConfig         `yaml:"http"`
	Remote        RemoteConfig       `yaml:"remote"`
	Storage       StorageConfig      `yaml:"storage"`
	Redis         RedisConfig        `yaml:"redis"`
	Kafka         KafkaConfig        `yaml:"kafka"`
	Queue         QueueConfig        `yaml:"queue"`
	Notifications NotificationConfig `yaml:"notifications"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	Debug   bool   `yaml:"debug"`
}

type RemoteConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig selects where the client keeps its persisted identity.
// Backend is "redis" or "file"; Path is only used by the file backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
}

// QueueConfig carries the three product poll cadences. They are
// deliberately independent timers, not one shared cadence.
type QueueConfig struct {
	StatusIntervalSeconds    int  `yaml:"status_interval_seconds"`
	DashboardIntervalSeconds int  `yaml:"dashboard_interval_seconds"`
	CardIntervalSeconds      int  `yaml:"card_interval_seconds"`
	AllowPositionIncrease    bool `yaml:"allow_position_increase"`
}

type NotificationConfig struct {
	DisplaySeconds          int `yaml:"display_seconds"`
	ProviderCacheTTLSeconds int `yaml:"provider_cache_ttl_seconds"`
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
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Remote.TimeoutSeconds == 0 {
		c.Remote.TimeoutSeconds = 15
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "queme-state.json"
	}
	if c.Queue.StatusIntervalSeconds == 0 {
		c.Queue.StatusIntervalSeconds = 7
	}
	if c.Queue.DashboardIntervalSeconds == 0 {
		c.Queue.DashboardIntervalSeconds = 8
	}
	if c.Queue.CardIntervalSeconds == 0 {
		c.Queue.CardIntervalSeconds = 30
	}
	if c.Notifications.DisplaySeconds == 0 {
		c.Notifications.DisplaySeconds = 3
	}
	if c.Notifications.ProviderCacheTTLSeconds == 0 {
		c.Notifications.ProviderCacheTTLSeconds = 300
	}
}
