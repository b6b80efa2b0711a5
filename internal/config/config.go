package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" validate:"omitempty,numeric"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" validate:"omitempty,url"`
	} `yaml:"postgres"`
	Trivia struct {
		BaseURL  string `yaml:"baseUrl" validate:"omitempty,url"`
		Timeout  string `yaml:"timeout"`
		Retries  uint64 `yaml:"retries" validate:"lte=10"`
		RetryMin string `yaml:"retryMin"`
		UseToken bool   `yaml:"useToken"`
	} `yaml:"trivia"`
	Quiz struct {
		Length       int    `yaml:"length" validate:"gte=0"`
		TimeLimit    string `yaml:"timeLimit"`
		TickInterval string `yaml:"tickInterval"`
		Source       string `yaml:"source" validate:"omitempty,oneof=trivia postgres"`
	} `yaml:"quiz"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// Load reads YAML config from path and validates it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Quiz.Source == "postgres" && cfg.Postgres.URL == "" {
		return fmt.Errorf("invalid config: quiz.source postgres requires postgres.url")
	}
	for name, raw := range map[string]string{
		"redis.ttl":         cfg.Redis.TTL,
		"trivia.timeout":    cfg.Trivia.Timeout,
		"trivia.retryMin":   cfg.Trivia.RetryMin,
		"quiz.timeLimit":    cfg.Quiz.TimeLimit,
		"quiz.tickInterval": cfg.Quiz.TickInterval,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	return nil
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
