package config

import (
	"os"
	"time"

	"exam-session-service/internal/session"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Topics struct {
		TTL string `yaml:"ttl"`
	} `yaml:"topics"`
	Readiness session.ReadinessPolicy `yaml:"readiness"`
}

// Load reads YAML config from path. Unset readiness thresholds fall back to
// the engine defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	defaults := session.DefaultReadinessPolicy()
	if cfg.Readiness.ReadyAccuracy == 0 {
		cfg.Readiness.ReadyAccuracy = defaults.ReadyAccuracy
	}
	if cfg.Readiness.ReviewAccuracy == 0 {
		cfg.Readiness.ReviewAccuracy = defaults.ReviewAccuracy
	}
	if cfg.Readiness.WeakTopicAccuracy == 0 {
		cfg.Readiness.WeakTopicAccuracy = defaults.WeakTopicAccuracy
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
