package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

type StyleModelConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type EpisodicConfig struct {
	Enabled bool `json:"enabled"`
	Qdrant  struct {
		URL        string `json:"url"`
		Collection string `json:"collection"`
		APIKey     string `json:"api_key"`
	} `json:"qdrant"`
	EmbeddingURL string `json:"embedding_url"`
}

type MemoryConfig struct {
	Episodic           EpisodicConfig `json:"episodic"`
	RetentionDays      int            `json:"retention_days"`
	PruneScheduleHours int            `json:"prune_schedule_hours"`
}

type AgentConfig struct {
	DefaultEmotion   string  `json:"default_emotion"`
	DefaultIntensity float64 `json:"default_intensity"`
}

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Postgres struct {
		DSN string `json:"dsn"`
	} `json:"postgres"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Agent  AgentConfig      `json:"agent"`
	Style  StyleModelConfig `json:"style_model"`
	Memory MemoryConfig     `json:"memory"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Minimal validation
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		applyDefaults(&c)
		cfg = &c
	})
	return cfg, cfgErr
}

func applyDefaults(c *Config) {
	if c.Agent.DefaultEmotion == "" {
		c.Agent.DefaultEmotion = "neutral"
	}
	if c.Agent.DefaultIntensity == 0 {
		c.Agent.DefaultIntensity = 0.5
	}
	if c.Memory.RetentionDays == 0 {
		c.Memory.RetentionDays = 90
	}
	if c.Memory.PruneScheduleHours == 0 {
		c.Memory.PruneScheduleHours = 24
	}
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
